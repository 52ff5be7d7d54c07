package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Session  SessionConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	PublicBaseURL string
	CORSOrigins   []string
	StaticDir     string
}

type DatabaseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
	ConnectRetry int
}

type RedisConfig struct {
	Enabled bool
	Addr    string
	LockTTL time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	GroupID     string
	TopicPrefix string
	Enabled     bool
}

type SessionConfig struct {
	Key        []byte
	Name       string
	Secure     bool
	MaxAge     int
	BcryptCost int
}

type LogConfig struct {
	Dir   string
	Level string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", ":3000"),
			ReadTimeout:   getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:  getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:   getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			CORSOrigins:   getEnvList("CORS_ORIGINS", nil),
			StaticDir:     getEnv("STATIC_DIR", "public"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite"),
			DSN:          getEnv("DB_DSN", "file:database.sqlite?cache=shared&_pragma=busy_timeout(5000)"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("AUTO_MIGRATE", true),
			ConnectRetry: getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			LockTTL: time.Duration(getEnvInt("ORDER_LOCK_TTL_SECONDS", 10)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:     getEnv("KAFKA_GROUP_ID", "bom-tracker-events"),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "bom"),
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
		},
		Session: SessionConfig{
			Key:        getEnvKey("SESSION_KEY"),
			Name:       getEnv("SESSION_NAME", "bom-session"),
			Secure:     getEnvBool("COOKIE_SECURE", false),
			MaxAge:     getEnvInt("SESSION_MAX_AGE_SECONDS", 7*24*3600),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN must be set")
	}
	if len(c.Session.Key) < 32 {
		return fmt.Errorf("SESSION_KEY must decode to at least 32 bytes")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must be set when KAFKA_ENABLED=true")
	}
	return nil
}

// Addr normalises PORT so both "3000" and ":3000" work.
func (s ServerConfig) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvKey decodes a base64 secret; a missing or short key is replaced by a
// random one, which invalidates sessions on restart.
func getEnvKey(key string) []byte {
	if value := os.Getenv(key); value != "" {
		if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && len(decoded) >= 32 {
			return decoded
		}
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("generate %s: %v", key, err))
	}
	return b
}
