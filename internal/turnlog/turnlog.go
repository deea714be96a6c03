// Package turnlog appends one row per pipeline turn to a tab-separated file.
// Columns grow as new keys are logged; the header is rewritten in place so
// older rows stay aligned. Tab is the delimiter because prompts and SQL
// routinely contain commas.
package turnlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Identity column names with special fill rules in NewTurn.
const (
	ColID          = "id"
	ColCreatedDate = "created_date"
)

// Logger accumulates key/value pairs for the current turn and flushes them
// as a single row on SaveTurn. Safe for concurrent use.
type Logger struct {
	mu       sync.Mutex
	path     string
	identity []string
	fields   []string
	current  map[string]string
	lastID   int
}

// New opens (or creates) the turn log at path. Identity columns are kept
// first in the header and are auto-filled on each NewTurn; when none are
// given, created_date is used.
func New(path string, identity ...string) (*Logger, error) {
	if len(identity) == 0 {
		identity = []string{ColCreatedDate}
	}
	l := &Logger{
		path:     path,
		identity: append([]string(nil), identity...),
		fields:   append([]string(nil), identity...),
	}
	if err := l.ensureFile(); err != nil {
		return nil, err
	}
	l.loadLastID()
	return l, nil
}

// Path returns the absolute location of the log file.
func (l *Logger) Path() string {
	abs, err := filepath.Abs(l.path)
	if err != nil {
		return l.path
	}
	return abs
}

func (l *Logger) ensureFile() error {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if dir := filepath.Dir(l.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("turnlog: create dir: %w", err)
			}
		}
		f, err := os.Create(l.path)
		if err != nil {
			return fmt.Errorf("turnlog: create file: %w", err)
		}
		defer f.Close()
		w := newWriter(f)
		if err := w.Write(l.fields); err != nil {
			return fmt.Errorf("turnlog: write header: %w", err)
		}
		w.Flush()
		return w.Error()
	} else if err != nil {
		return fmt.Errorf("turnlog: stat: %w", err)
	}

	// Existing file: adopt its header, keeping identity columns first.
	header, _, err := l.readAll()
	if err != nil {
		return err
	}
	if len(header) > 0 {
		l.fields = mergeFields(l.identity, header)
	}
	return nil
}

func (l *Logger) loadLastID() {
	header, rows, err := l.readAll()
	if err != nil {
		return
	}
	idx := -1
	for i, f := range header {
		if f == ColID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if n, err := strconv.Atoi(row[idx]); err == nil && n > l.lastID {
			l.lastID = n
		}
	}
}

func (l *Logger) readAll() (header []string, rows [][]string, err error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, nil, fmt.Errorf("turnlog: open: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	all, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("turnlog: read: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// NewTurn flushes any pending turn, then starts a fresh one with the
// identity columns pre-filled.
func (l *Logger) NewTurn() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		if err := l.saveLocked(); err != nil {
			return err
		}
	}
	l.current = make(map[string]string, len(l.fields))
	for _, col := range l.identity {
		switch col {
		case ColID:
			l.lastID++
			l.current[col] = strconv.Itoa(l.lastID)
		case ColCreatedDate:
			l.current[col] = time.Now().Format("2006-01-02 15:04:05")
		default:
			l.current[col] = ""
		}
	}
	return nil
}

// Log records a key/value pair into the current turn. Repeated keys append
// the new value on its own line. Unknown keys widen the file's header.
func (l *Logger) Log(key, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		l.current = make(map[string]string)
	}
	if prev, ok := l.current[key]; ok {
		l.current[key] = prev + "\n" + value
		return
	}
	l.current[key] = value
	for _, f := range l.fields {
		if f == key {
			return
		}
	}
	l.fields = append(l.fields, key)
	// Best effort: an unreadable log file should not abort the pipeline.
	_ = l.rewriteHeader()
}

// rewriteHeader widens the on-disk header to l.fields, padding old rows,
// via a temp file swapped into place.
func (l *Logger) rewriteHeader() error {
	header, rows, err := l.readAll()
	if err != nil {
		return err
	}
	fields := mergeFields(l.identity, header)
	fields = mergeFields(fields, l.fields)
	l.fields = fields

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".turnlog-*")
	if err != nil {
		return fmt.Errorf("turnlog: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	w := newWriter(tmp)
	werr := w.Write(fields)
	index := make(map[string]int, len(header))
	for i, f := range header {
		index[f] = i
	}
	for _, row := range rows {
		if werr != nil {
			break
		}
		out := make([]string, len(fields))
		for i, f := range fields {
			if j, ok := index[f]; ok && j < len(row) {
				out[i] = row[j]
			}
		}
		werr = w.Write(out)
	}
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("turnlog: rewrite header: %w", werr)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("turnlog: swap file: %w", err)
	}
	return nil
}

// SaveTurn appends the current turn as one row and clears it.
func (l *Logger) SaveTurn() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

func (l *Logger) saveLocked() error {
	if l.current == nil {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("turnlog: open for append: %w", err)
	}
	defer f.Close()
	row := make([]string, len(l.fields))
	for i, field := range l.fields {
		row[i] = l.current[field]
	}
	w := newWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("turnlog: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("turnlog: flush row: %w", err)
	}
	l.current = nil
	return nil
}

// Close flushes any unsaved turn.
func (l *Logger) Close() error {
	return l.SaveTurn()
}

func newWriter(f *os.File) *csv.Writer {
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return w
}

func mergeFields(first, second []string) []string {
	out := make([]string, 0, len(first)+len(second))
	seen := make(map[string]bool, len(first)+len(second))
	for _, f := range first {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range second {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
