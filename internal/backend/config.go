package backend

import (
	"fmt"

	"expensetracker/internal/config"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	dialect, err := storage.ParseDialect(appConfig.DBDriver)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database driver in config: %w", err)
	}

	return Config{
		Dialect: dialect,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		Postgres: storage.PostgresOptions{
			Host:     appConfig.DBHost,
			Port:     appConfig.DBPort,
			Name:     appConfig.DBName,
			User:     appConfig.DBUser,
			Password: appConfig.DBPassword,
			SSLMode:  appConfig.DBSSLMode,
		},

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets: google.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Dialect {
	case storage.SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for the sqlite driver")
		}
	case storage.Postgres:
		if c.Postgres.Host == "" || c.Postgres.Name == "" || c.Postgres.User == "" {
			return fmt.Errorf("host, name and user are required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database dialect: %q", c.Dialect)
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when an AMQP URL is set")
	}

	return nil
}

// DSN returns the connection string for the configured dialect.
func (c Config) DSN() string {
	if c.Dialect == storage.Postgres {
		return c.Postgres.DSN()
	}
	return storage.SQLiteDSN(c.SQLiteDBPath)
}
