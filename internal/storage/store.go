package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store persists expenses in a single relational table.
// Every operation runs one statement on a connection acquired for that
// call and released before returning.
type Store struct {
	db      *sql.DB
	dialect Dialect
	dsn     string
	q       queries
}

type queries struct {
	insert        string
	insertDated   string
	list          string
	deleteByID    string
	sumByCategory string
}

func newQueries(d Dialect) queries {
	amount := "amount"
	sum := `SELECT category, SUM(amount) FROM expenses GROUP BY category`
	if d == SQLite {
		// SQLite has no exact decimal type: amounts are kept as text and
		// totalled with decimal arithmetic in SummarizeByCategory.
		amount = "CAST(amount AS TEXT)"
		sum = `SELECT category, CAST(amount AS TEXT) FROM expenses ORDER BY category`
	}
	return queries{
		insert: d.Rebind(`INSERT INTO expenses (amount, category, description)
			VALUES (?, ?, ?) RETURNING id, date`),
		insertDated: d.Rebind(`INSERT INTO expenses (amount, category, description, date)
			VALUES (?, ?, ?, ?) RETURNING id, date`),
		list: `SELECT id, ` + amount + `, category, description, date
			FROM expenses ORDER BY date DESC, id DESC`,
		deleteByID:    d.Rebind(`DELETE FROM expenses WHERE id = ?`),
		sumByCategory: sum,
	}
}

// Open connects to the database but does not touch the schema;
// call EnsureSchema before serving.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		// One writer at a time; the pool queues callers instead of the
		// engine returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	case Postgres:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", core.ErrStorage, err)
	}

	return &Store{db: db, dialect: dialect, dsn: dsn, q: newQueries(dialect)}, nil
}

// OpenSQLite opens (creating if needed) the SQLite file at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(ctx, SQLite, SQLiteDSN(path))
}

// OpenPostgres connects to a PostgreSQL server.
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*Store, error) {
	return Open(ctx, Postgres, opts.DSN())
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// EnsureSchema creates the expenses table when it does not exist yet.
// It is safe to call on every startup.
func (s *Store) EnsureSchema() error {
	if err := RunMigrations(s.dialect, s.dsn); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", core.ErrStorage, err)
	}
	return nil
}

// withConn runs fn on a dedicated connection and always releases it.
func (s *Store) withConn(ctx context.Context, op string, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: acquire connection: %w", core.ErrStorage, op, err)
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
	}
	return nil
}

// Create inserts one expense. When e.Date is nil the column default
// (the database's current date) applies. The stored row is returned.
func (s *Store) Create(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	created := core.Expense{
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
	}

	args := []any{e.Amount, nullString(e.Category), nullString(e.Description)}
	query := s.q.insert
	if e.Date != nil {
		args = append(args, *e.Date)
		query = s.q.insertDated
	}

	err := s.withConn(ctx, "create expense", func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query, args...).Scan(&created.ID, &created.Date)
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.DebugContext(ctx, "Expense stored",
		"id", created.ID,
		"amount", created.Amount.String(),
		"date", created.Date.String())

	return created, nil
}

// List returns every expense, newest date first; same-date rows are
// ordered by id descending so the latest insert comes first.
func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	expenses := []core.Expense{}
	err := s.withConn(ctx, "list expenses", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.q.list)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e           core.Expense
				category    sql.NullString
				description sql.NullString
			)
			if err := rows.Scan(&e.ID, &e.Amount, &category, &description, &e.Date); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			e.Category = stringPtr(category)
			e.Description = stringPtr(description)
			expenses = append(expenses, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteByID removes the expense with the given id. A missing id is not
// an error and is indistinguishable from a successful delete.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	return s.withConn(ctx, "delete expense", func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, s.q.deleteByID, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			slog.DebugContext(ctx, "Expense delete executed", "id", id, "rows_affected", n)
		}
		return nil
	})
}

// SummarizeByCategory sums amounts per category. Uncategorised rows form
// their own group with a nil Category. Group order is unspecified.
// PostgreSQL returns one row per group; on SQLite every row is returned
// and folded here so the totals stay exact.
func (s *Store) SummarizeByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	totals := []core.CategoryTotal{}
	err := s.withConn(ctx, "summarize expenses", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, s.q.sumByCategory)
		if err != nil {
			return err
		}
		defer rows.Close()

		index := make(map[sql.NullString]int)
		for rows.Next() {
			var (
				amount   decimal.Decimal
				category sql.NullString
			)
			if err := rows.Scan(&category, &amount); err != nil {
				return fmt.Errorf("scan row: %w", err)
			}
			if !category.Valid {
				category.String = ""
			}
			if i, ok := index[category]; ok {
				totals[i].Total = totals[i].Total.Add(amount)
				continue
			}
			index[category] = len(totals)
			totals = append(totals, core.CategoryTotal{Category: stringPtr(category), Total: amount})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, "ping", func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
