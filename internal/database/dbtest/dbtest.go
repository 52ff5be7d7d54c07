// Package dbtest provides a migrated in-memory sqlite database for package tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"bom-tracker/internal/config"
	"bom-tracker/internal/database"
	"bom-tracker/internal/logger"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var seq atomic.Int64

// New returns an isolated in-memory database that is closed with the test.
func New(t testing.TB) *bun.DB {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1)),
		ConnectRetry: 1,
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, database.CreateSchema(ctx, db))

	t.Cleanup(func() { db.Close() })
	return db
}
