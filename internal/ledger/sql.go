package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS test_case_ledger (
	sub_id        TEXT,
	test_id       TEXT,
	input         TEXT,
	expect_output TEXT,
	file_name     TEXT,
	time_ms       TEXT,
	memory_kb     TEXT,
	output        TEXT,
	error         TEXT,
	status        TEXT
)`

const index = `CREATE INDEX IF NOT EXISTS test_case_ledger_key ON test_case_ledger (sub_id, test_id)`

type SQLStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLStore)(nil)

// DriverFor picks the database/sql driver for a DSN. Postgres URLs go to
// lib/pq, everything else is treated as a sqlite path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite3"
}

// Open connects to the ledger database and pings it.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	driver := DriverFor(dsn)
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %w", ErrStorage, driver, err)
	}
	if driver == "sqlite3" {
		// a single connection keeps :memory: databases shared and
		// serializes writers the way sqlite wants them anyway
		db.SetMaxOpenConns(1)
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an already open connection. The caller keeps ownership
// of its pool settings.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the ledger table if it does not exist yet. No key is
// declared on (sub_id, test_id); the index only speeds up updates.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{schema, index} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: failed to migrate ledger: %w", ErrStorage, err)
		}
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, row Row) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO test_case_ledger
			(sub_id, test_id, input, expect_output, file_name, time_ms, memory_kb, output, error, status)
		VALUES
			(:sub_id, :test_id, :input, :expect_output, :file_name, :time_ms, :memory_kb, :output, :error, :status)`,
		row)
	if err != nil {
		return fmt.Errorf("%w: failed to insert row (%s, %s): %w", ErrStorage, row.SubmissionID, row.TestCaseID, err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, o Outcome) (int64, error) {
	query := s.db.Rebind(`UPDATE test_case_ledger
		SET time_ms = ?, memory_kb = ?, output = ?, error = ?, status = ?
		WHERE sub_id = ? AND test_id = ?`)
	res, err := s.db.ExecContext(ctx, query,
		o.TimeMs, o.MemoryKb, o.Output, o.Error, o.Status,
		o.SubmissionID, o.TestCaseID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to update row (%s, %s): %w", ErrStorage, o.SubmissionID, o.TestCaseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count updated rows: %w", ErrStorage, err)
	}
	return n, nil
}

func (s *SQLStore) Rows(ctx context.Context, submissionID string) ([]Row, error) {
	var rows []Row
	query := s.db.Rebind(`SELECT sub_id, test_id, input, expect_output, file_name,
			time_ms, memory_kb, output, error, status
		FROM test_case_ledger WHERE sub_id = ?`)
	// the table has no sequence column, so only sqlite can replay insertion order
	if s.db.DriverName() == "sqlite3" {
		query += " ORDER BY rowid"
	}
	if err := s.db.SelectContext(ctx, &rows, query, submissionID); err != nil {
		return nil, fmt.Errorf("%w: failed to select rows of %s: %w", ErrStorage, submissionID, err)
	}
	return rows, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
