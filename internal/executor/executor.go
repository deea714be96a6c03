// Package executor runs LLM-generated SQL against the configured database
// and reports outcomes as data: a failed statement yields the error text and
// ok=false, never a raised error, so the generation loop can feed failures
// back into its fix prompts.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// Executor is the adapter consumed by the generation pipeline.
type Executor interface {
	Execute(ctx context.Context, query string) (result string, ok bool)
}

// SQLExecutor executes queries over database/sql. Concurrent use is safe;
// each Execute borrows a connection from the pool.
type SQLExecutor struct {
	db      *sql.DB
	log     *zap.Logger
	maxRows int
}

// Option tweaks a SQLExecutor.
type Option func(*SQLExecutor)

// WithMaxRows caps how many rows are rendered into the result string.
func WithMaxRows(n int) Option {
	return func(e *SQLExecutor) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// Open connects to the database behind the pgx stdlib driver.
func Open(dsn string, log *zap.Logger, opts ...Option) (*SQLExecutor, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("executor: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("executor: ping: %w", err)
	}
	return NewWithDB(db, log, opts...), nil
}

// NewWithDB wraps an existing handle; used by tests with sqlmock.
func NewWithDB(db *sql.DB, log *zap.Logger, opts ...Option) *SQLExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &SQLExecutor{db: db, log: log, maxRows: 200}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *SQLExecutor) Close() error { return e.db.Close() }

// Execute runs one query. On failure the error message becomes the result.
func (e *SQLExecutor) Execute(ctx context.Context, query string) (string, bool) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		e.log.Debug("sql execution failed", zap.String("query", query), zap.Error(err))
		return err.Error(), false
	}
	defer rows.Close()

	out, err := renderRows(rows, e.maxRows)
	if err != nil {
		e.log.Debug("sql row scan failed", zap.String("query", query), zap.Error(err))
		return err.Error(), false
	}
	return out, true
}

// renderRows formats the result set as a list of tuples, one row per line,
// the shape the downstream prompts expect.
func renderRows(rows *sql.Rows, maxRows int) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	n := 0
	for rows.Next() {
		if n >= maxRows {
			fmt.Fprintf(&b, "... (giới hạn %d dòng)\n", maxRows)
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(cols))
		for i, v := range vals {
			cells[i] = renderValue(v)
		}
		b.WriteString("(" + strings.Join(cells, ", ") + ")\n")
		n++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
