package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EXPENSE_TEST_VAR=from-file\nEXPENSE_TEST_KEEP=file\n"), 0o600))

	t.Setenv("EXPENSE_TEST_KEEP", "env")
	t.Cleanup(func() { os.Unsetenv("EXPENSE_TEST_VAR") })

	require.NoError(t, LoadEnvFile(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("EXPENSE_TEST_VAR"))
	assert.Equal(t, "env", os.Getenv("EXPENSE_TEST_KEEP"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")
	_, err := LoadAndValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database driver")

	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger("cli", slog.LevelDebug, &buf)
	slog.Debug("hello")

	assert.Equal(t, "cli", logger.Component())
	assert.Contains(t, buf.String(), "component=cli")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("test", slog.LevelInfo, &buf)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	parent, cancel := context.WithCancel(context.Background())
	called := make(chan struct{})
	ctx, done := GracefulShutdown(parent, logger, time.Second, func(context.Context) error {
		close(called)
		return errors.New("flush failed")
	})

	cancel()
	<-ctx.Done()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}
	<-called
	assert.Contains(t, buf.String(), "Shutdown cleanup failed")
}
