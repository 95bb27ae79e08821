// Package sessionlog records intercepted traffic into a SQLite database.
package sessionlog

import (
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// InMemory opens a private in-memory database.
const InMemory = ":memory:"

type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS requests (id INTEGER NOT NULL, request BLOB NOT NULL, inserted TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS responses (id INTEGER NOT NULL, response BLOB NOT NULL, inserted TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`,
}

// Entry is one recorded message.
type Entry struct {
	ID  uint64
	Raw []byte
}

// Store owns the database connection. A sqlite.Conn is not safe for
// concurrent use and hooks may run in parallel, so every call takes mu.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("open session log %s: %w", path, err)
	}
	for _, stmt := range schema {
		if err := sqlitex.ExecuteTransient(conn, stmt, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("create session log schema: %w", err)
		}
	}
	return &Store{conn: conn}, nil
}

// Record appends one raw message.
func (s *Store) Record(kind Kind, id uint64, raw []byte) error {
	var query string
	switch kind {
	case KindRequest:
		query = `INSERT INTO requests (id, request) VALUES (?, ?)`
	case KindResponse:
		query = `INSERT INTO responses (id, response) VALUES (?, ?)`
	default:
		return fmt.Errorf("unknown session log kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		Args: []any{int64(id), raw},
	}); err != nil {
		return fmt.Errorf("record %s %d: %w", kind, id, err)
	}
	return nil
}

// Entries returns recorded messages of kind in insertion order.
func (s *Store) Entries(kind Kind) ([]Entry, error) {
	var query string
	switch kind {
	case KindRequest:
		query = `SELECT id, request FROM requests ORDER BY rowid`
	case KindResponse:
		query = `SELECT id, response FROM responses ORDER BY rowid`
	default:
		return nil, fmt.Errorf("unknown session log kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []Entry
	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			raw := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, raw)
			entries = append(entries, Entry{ID: uint64(stmt.ColumnInt64(0)), Raw: raw})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", kind, err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Plugin records every message it sees and returns it untouched.
type Plugin struct {
	store *Store
}

func New(store *Store) *Plugin {
	return &Plugin{store: store}
}

func (p *Plugin) OnRequest(id uint64, raw []byte) ([]byte, error) {
	if err := p.store.Record(KindRequest, id, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (p *Plugin) OnResponse(id uint64, raw []byte) ([]byte, error) {
	if err := p.store.Record(KindResponse, id, raw); err != nil {
		return nil, err
	}
	return raw, nil
}
