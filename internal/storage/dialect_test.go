package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		" pg ":       Postgres,
		"sqlite":     SQLite,
		"sqlite3":    SQLite,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "INSERT INTO expenses (a, b, c) VALUES (?, ?, ?)"
	assert.Equal(t, "INSERT INTO expenses (a, b, c) VALUES ($1, $2, $3)", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestPostgresDSN(t *testing.T) {
	opts := PostgresOptions{Host: "db", Port: 5432, Name: "expenses", User: "app", Password: "it's secret"}
	assert.Equal(t,
		`host=db port=5432 dbname=expenses user=app sslmode=disable password='it\'s secret'`,
		opts.DSN())

	opts.Password = ""
	opts.SSLMode = "require"
	assert.Equal(t, "host=db port=5432 dbname=expenses user=app sslmode=require", opts.DSN())
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("/tmp/x.db")
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
}
