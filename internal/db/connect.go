package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens the local journal database and ensures its schema exists.
// Queries are written with ? placeholders and rebound per driver.
func Open(ctx context.Context, driver Driver, dsn string) (*sqlx.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite, "":
		driver, drvName = DriverSQLite, "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:edupulse.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/edupulse?sslmode=disable"
		}
	default:
		return nil, errors.Errorf("unsupported driver: %s", driver)
	}

	db, err := sqlx.ConnectContext(ctx, drvName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "schema")
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB, driver Driver) error {
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS result_journal (
  result_id TEXT PRIMARY KEY,
  student TEXT NOT NULL,
  class_name TEXT NOT NULL DEFAULT '',
  lesson TEXT NOT NULL,
  payload TEXT NOT NULL,                   -- JSON of the submitted result
  status TEXT NOT NULL,                    -- pending | ok | failed
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS result_journal_status ON result_journal(status);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,                       -- e.g., ResultSynced
  key TEXT NOT NULL,                       -- natural key: result id
  data TEXT NOT NULL,                      -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS result_journal (
  result_id TEXT PRIMARY KEY,
  student TEXT NOT NULL,
  class_name TEXT NOT NULL DEFAULT '',
  lesson TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS result_journal_status ON result_journal(status);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
