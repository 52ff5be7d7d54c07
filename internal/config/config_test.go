package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_KEY", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Len(t, cfg.Session.Key, 32)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 48)))
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@db/bom?sslmode=disable")
	t.Setenv("SESSION_KEY", key)
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ORDER_LOCK_TTL_SECONDS", "3")
	t.Setenv("HTTP_READ_TIMEOUT", "2s")
	t.Setenv("PUBLIC_BASE_URL", "https://bom.example.com/")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []byte(strings.Repeat("k", 48)), cfg.Session.Key)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://bom.example.com", cfg.Server.PublicBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	cfg := Load()
	assert.Error(t, cfg.Validate())
}
