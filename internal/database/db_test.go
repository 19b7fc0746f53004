package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-auth-service/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.Config{
		DBUser: "app", DBPass: "p@ss", DBHost: "db", DBPort: "3306", DBName: "auth",
	})

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "p@ss", mc.Passwd)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db:3306", mc.Addr)
	assert.Equal(t, "auth", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.Equal(t, time.UTC, mc.Loc)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := fs.ReadFile(migrations, "migrations/00001_create_users.sql")
	require.NoError(t, err)
	sqlText := string(b)
	assert.Contains(t, sqlText, "-- +goose Up")
	assert.Contains(t, sqlText, "-- +goose Down")
	assert.Contains(t, sqlText, "UNIQUE KEY uq_users_email (email)")
	assert.Contains(t, sqlText, "ENUM('user','admin')")
}

func TestMigrate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)

	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("boom") }
	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
