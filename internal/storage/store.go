// internal/storage/store.go
package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"diet-coach/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Lookup misses, re-exported so storage callers need not import models.
var (
	ErrNotFound     = models.ErrNotFound
	ErrMealNotFound = models.ErrMealNotFound
	ErrFoodNotFound = models.ErrFoodNotFound
)

// Store is the SQL-backed data store for meals, chat history, profiles and
// weigh-ins.
// Queries are written with ? placeholders and rebound per driver.
type Store struct {
	db     *sql.DB
	driver string

	mu     sync.Mutex
	lastTS int64
	now    func() time.Time
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string {
	return s.driver
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meals (
			id             VARCHAR(64) PRIMARY KEY,
			user_id        VARCHAR(64) NOT NULL,
			meal_date      VARCHAR(10) NOT NULL,
			meal_type      VARCHAR(16) NOT NULL,
			total_calories INTEGER     NOT NULL,
			created_ts     BIGINT      NOT NULL,
			updated_ts     BIGINT      NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meal_items (
			id       VARCHAR(64)      PRIMARY KEY,
			meal_id  VARCHAR(64)      NOT NULL,
			seq      BIGINT           NOT NULL,
			name     VARCHAR(255)     NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			calories INTEGER          NOT NULL,
			protein  DOUBLE PRECISION NOT NULL,
			carbs    DOUBLE PRECISION NOT NULL,
			fat      DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id         VARCHAR(64) PRIMARY KEY,
			user_id    VARCHAR(64) NOT NULL,
			role       VARCHAR(16) NOT NULL,
			content    TEXT        NOT NULL,
			chat_type  VARCHAR(16) NOT NULL,
			created_ts BIGINT      NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id           VARCHAR(64) PRIMARY KEY,
			target_calories   INTEGER     NOT NULL,
			current_weight_kg DOUBLE PRECISION,
			goal_weight_kg    DOUBLE PRECISION,
			persona           VARCHAR(16) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS progress_logs (
			id         VARCHAR(64)      PRIMARY KEY,
			user_id    VARCHAR(64)      NOT NULL,
			log_date   VARCHAR(10)      NOT NULL,
			weight_kg  DOUBLE PRECISION NOT NULL,
			created_ts BIGINT           NOT NULL
		)`,
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if s.driver != DriverMySQL {
		stmts = append(stmts,
			`CREATE INDEX IF NOT EXISTS idx_meals_user_date ON meals(user_id, meal_date)`,
			`CREATE INDEX IF NOT EXISTS idx_meal_items_meal_id ON meal_items(meal_id)`,
			`CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages(user_id, created_ts)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_logs_user_date ON progress_logs(user_id, log_date)`,
		)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create schema")
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// nextTimestamp returns a strictly increasing unix-nano timestamp so rows
// written within the same clock tick keep their insertion order.
func (s *Store) nextTimestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UnixNano()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}
