package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/creatorhub_server/config"
)

func TestDSN(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		dsn := DSN(&config.DatabaseConfig{
			Driver: "postgres", Host: "db", Port: 5432,
			Username: "u", Password: "p", Database: "creatorhub",
		})
		assert.Equal(t, "host=db port=5432 user=u password=p dbname=creatorhub sslmode=disable TimeZone=UTC", dsn)
	})

	t.Run("mysql", func(t *testing.T) {
		dsn := DSN(&config.DatabaseConfig{
			Driver: "mysql", Host: "db", Port: 3306,
			Username: "u", Password: "p", Database: "creatorhub",
		})
		assert.Equal(t, "u:p@tcp(db:3306)/creatorhub?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
	})
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"wrapped deadlock", fmt.Errorf("migrate: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetryMigration(tt.err))
		})
	}
}

func TestModels(t *testing.T) {
	assert.Len(t, Models(), 9)
}
