// Package refdb reads reference libraries stored in SQLite: one row per
// work, the citation key alongside a CSL-JSON payload. Export-to-SQLite
// is a common interchange path for reference managers, and it keeps big
// libraries out of memory until a key is actually cited.
package refdb

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"citeproc/bib"
	"citeproc/bib/csljson"
)

const schema = `CREATE TABLE IF NOT EXISTS refs (
	key     TEXT PRIMARY KEY,
	payload TEXT NOT NULL
);`

// Library is an open reference database. Not safe for concurrent use;
// the connection is single-threaded by design.
type Library struct {
	conn *sqlite.Conn
	log  *zap.Logger
}

// Open opens (creating if needed) a reference database at path.
func Open(path string, log *zap.Logger) (*Library, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("open reference db: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare reference db: %w", err)
	}
	return &Library{conn: conn, log: log}, nil
}

func (l *Library) Close() error {
	return l.conn.Close()
}

// Store writes one record: the key and its CSL-JSON item payload.
// An existing record under the same key is replaced.
func (l *Library) Store(key, payload string) error {
	err := sqlitex.Execute(l.conn, `INSERT OR REPLACE INTO refs (key, payload) VALUES (?, ?)`,
		&sqlitex.ExecOptions{Args: []any{key, payload}})
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Keys lists every citation key in the library, ordered.
func (l *Library) Keys() ([]string, error) {
	var keys []string
	err := sqlitex.Execute(l.conn, `SELECT key FROM refs ORDER BY key`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Fetch reads the named keys into a bib source. Keys the library does
// not have are reported and skipped; a payload that fails to decode is
// an error.
func (l *Library) Fetch(keys ...string) (bib.Source, error) {
	source := make(bib.Source, len(keys))
	for _, key := range keys {
		var payload string
		found := false
		err := sqlitex.Execute(l.conn, `SELECT payload FROM refs WHERE key = ?`,
			&sqlitex.ExecOptions{
				Args: []any{key},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					payload = stmt.ColumnText(0)
					found = true
					return nil
				}})
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", key, err)
		}
		if !found {
			l.log.Warn("Key not in reference db", zap.String("key", key))
			continue
		}
		decoded, err := csljson.Parse(strings.NewReader("["+payload+"]"), l.log)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if ref, ok := decoded.Lookup(key); ok {
			source.Add(ref)
		} else {
			// the payload may carry a different id; trust the stored key
			for _, ref := range decoded {
				ref.Key = key
				source.Add(ref)
			}
		}
	}
	return source, nil
}

// FetchAll reads the whole library into a source.
func (l *Library) FetchAll() (bib.Source, error) {
	keys, err := l.Keys()
	if err != nil {
		return nil, err
	}
	return l.Fetch(keys...)
}

// Import splits a CSL-JSON array into records and stores each one under
// its id, replacing existing entries.
func (l *Library) Import(data []byte) (int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("decode import: %w", err)
	}
	stored := 0
	for i, item := range items {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &head); err != nil || head.ID == "" {
			return stored, fmt.Errorf("record %d: missing id", i)
		}
		if err := l.Store(head.ID, string(item)); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}
