// Package ledger persists the outcome of every plugin registration pass so
// past passes can be compared after the process exits.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ferro-labs/pressplug/plugin"
)

// Entry is one plugin outcome of one registration pass.
type Entry struct {
	PassID        string    `json:"pass_id"`
	Index         int       `json:"index"`
	Plugin        string    `json:"plugin"`
	Status        string    `json:"status"`
	Contributions int       `json:"contributions"`
	Diagnostics   int       `json:"diagnostics"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Writer persists ledger entries.
type Writer interface {
	Write(ctx context.Context, entry Entry) error
}

// NoopWriter ignores all ledger writes.
type NoopWriter struct{}

func (NoopWriter) Write(_ context.Context, _ Entry) error { return nil }

// Query filters List results. Zero fields match everything.
type Query struct {
	PassID string
	Plugin string
	Status string
	Limit  int
	Offset int
}

// ListResult is a page of entries plus the total number of matches.
type ListResult struct {
	Data  []Entry `json:"data"`
	Total int     `json:"total"`
}

// SQLWriter persists entries to SQLite/Postgres.
type SQLWriter struct {
	db      *sql.DB
	dialect string
}

// Open returns a writer for the named driver ("sqlite" or "postgres").
func Open(driver, dsn string) (*SQLWriter, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLiteWriter(dsn)
	case "postgres":
		return NewPostgresWriter(dsn)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}

func NewSQLiteWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "pressplug-ledger.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "sqlite"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "postgres"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) init() error {
	if err := w.db.Ping(); err != nil {
		return fmt.Errorf("ping %s ledger: %w", w.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS registration_ledger (
	id INTEGER PRIMARY KEY,
	pass_id TEXT NOT NULL,
	entry_index INTEGER NOT NULL,
	plugin TEXT NOT NULL,
	status TEXT NOT NULL,
	contributions INTEGER NOT NULL,
	diagnostics INTEGER NOT NULL,
	message TEXT,
	created_at TIMESTAMP NOT NULL
);`

	if w.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS registration_ledger (
	id BIGSERIAL PRIMARY KEY,
	pass_id TEXT NOT NULL,
	entry_index INTEGER NOT NULL,
	plugin TEXT NOT NULL,
	status TEXT NOT NULL,
	contributions INTEGER NOT NULL,
	diagnostics INTEGER NOT NULL,
	message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);`
	}

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize ledger schema: %w", err)
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter for the dialect.
func (w *SQLWriter) placeholder(n int) string {
	if w.dialect == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (w *SQLWriter) Write(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	params := make([]string, 8)
	for i := range params {
		params[i] = w.placeholder(i + 1)
	}
	query := `INSERT INTO registration_ledger(pass_id, entry_index, plugin, status, contributions, diagnostics, message, created_at)
	VALUES(` + strings.Join(params, ", ") + `)`

	_, err := w.db.ExecContext(ctx, query,
		entry.PassID,
		entry.Index,
		entry.Plugin,
		entry.Status,
		entry.Contributions,
		entry.Diagnostics,
		entry.Message,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	return nil
}

// List returns matching entries, newest pass first and in list order within
// a pass.
func (w *SQLWriter) List(ctx context.Context, q Query) (ListResult, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, column+" = "+w.placeholder(len(args)))
	}
	add("pass_id", q.PassID)
	add("plugin", q.Plugin)
	add("status", q.Status)

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var result ListResult
	if err := w.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registration_ledger"+clause, args...).Scan(&result.Total); err != nil {
		return ListResult{}, fmt.Errorf("count ledger entries: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	pageArgs := append(append([]interface{}{}, args...), limit, offset)
	query := `SELECT pass_id, entry_index, plugin, status, contributions, diagnostics, COALESCE(message, ''), created_at
	FROM registration_ledger` + clause + `
	ORDER BY created_at DESC, pass_id, entry_index
	LIMIT ` + w.placeholder(len(args)+1) + ` OFFSET ` + w.placeholder(len(args)+2)

	rows, err := w.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list ledger entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result.Data = []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PassID, &e.Index, &e.Plugin, &e.Status, &e.Contributions, &e.Diagnostics, &e.Message, &e.CreatedAt); err != nil {
			return ListResult{}, fmt.Errorf("scan ledger entry: %w", err)
		}
		result.Data = append(result.Data, e)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list ledger entries: %w", err)
	}
	return result, nil
}

// Prune deletes entries created before the cutoff and returns how many were
// removed.
func (w *SQLWriter) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := w.db.ExecContext(ctx, "DELETE FROM registration_ledger WHERE created_at < "+w.placeholder(1), before)
	if err != nil {
		return 0, fmt.Errorf("prune ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune ledger: %w", err)
	}
	return n, nil
}

func (w *SQLWriter) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// WriteReport records every outcome of a pass under passID. All entries of
// a pass share one timestamp. cause, when non-nil, is attached to the
// failing outcome.
func WriteReport(ctx context.Context, w Writer, passID string, report *plugin.Report, cause error) error {
	if report == nil {
		return nil
	}
	now := time.Now().UTC()
	for _, o := range report.Outcomes {
		entry := Entry{
			PassID:        passID,
			Index:         o.Index,
			Plugin:        o.Plugin,
			Status:        string(o.Status),
			Contributions: o.Contributions,
			Diagnostics:   len(o.Diagnostics),
			CreatedAt:     now,
		}
		switch {
		case o.Status == plugin.StatusFailed && cause != nil:
			entry.Message = cause.Error()
		case len(o.Diagnostics) > 0:
			entry.Message = o.Diagnostics[0].Message
		}
		if err := w.Write(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
