package indexer

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/glsld/glsld/internal/errors"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DataIndexer stores msgpack-encoded records of type T in SQLite. Every
// record belongs to a file and has a key; a file holds at most one record
// per key.
type DataIndexer[T any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewDataIndexer opens (or creates) the database at dbPath.
func NewDataIndexer[T any](dbPath string) (*DataIndexer[T], error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create index directory")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index database %s", dbPath)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA auto_vacuum=INCREMENTAL",
		"PRAGMA wal_autocheckpoint=1000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "failed to set %s", pragma)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			file_path TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (file_path, key)
		);
		CREATE INDEX IF NOT EXISTS idx_records_key ON records(key);
	`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize index schema")
	}

	return &DataIndexer[T]{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (idx *DataIndexer[T]) Path() string {
	return idx.dbPath
}

// ReplaceFile drops every record of filePath and stores items instead.
func (idx *DataIndexer[T]) ReplaceFile(filePath string, items map[string]T) error {
	return idx.BatchReplace(map[string]map[string]T{filePath: items})
}

// BatchReplace is ReplaceFile for several files in one transaction.
func (idx *DataIndexer[T]) BatchReplace(files map[string]map[string]T) error {
	if len(files) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	deleteStmt, err := tx.Prepare("DELETE FROM records WHERE file_path = ?")
	if err != nil {
		return errors.Wrap(err, "failed to prepare delete")
	}
	defer func() { _ = deleteStmt.Close() }()

	insertStmt, err := tx.Prepare("INSERT INTO records (file_path, key, value) VALUES (?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer func() { _ = insertStmt.Close() }()

	for _, filePath := range sortedKeys(files) {
		if _, err := deleteStmt.Exec(filePath); err != nil {
			return errors.Wrapf(err, "failed to delete records of %s", filePath)
		}
		items := files[filePath]
		for _, key := range sortedKeys(items) {
			data, err := msgpack.Marshal(items[key])
			if err != nil {
				return errors.Wrapf(err, "failed to encode record %s of %s", key, filePath)
			}
			if _, err := insertStmt.Exec(filePath, key, data); err != nil {
				return errors.Wrapf(err, "failed to store record %s of %s", key, filePath)
			}
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit records")
}

// Get returns the record stored under key for filePath.
func (idx *DataIndexer[T]) Get(filePath, key string) (T, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var item T
	var data []byte
	err := idx.db.QueryRow("SELECT value FROM records WHERE file_path = ? AND key = ?", filePath, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return item, false, nil
	}
	if err != nil {
		return item, false, errors.Wrapf(err, "failed to read record %s of %s", key, filePath)
	}
	if err := msgpack.Unmarshal(data, &item); err != nil {
		return item, false, errors.Wrapf(err, "failed to decode record %s of %s", key, filePath)
	}
	return item, true, nil
}

// GetValues returns every record stored under key, ordered by file path.
func (idx *DataIndexer[T]) GetValues(key string) ([]T, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query("SELECT value FROM records WHERE key = ? ORDER BY file_path", key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query records for %s", key)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		var item T
		if err := msgpack.Unmarshal(data, &item); err != nil {
			return nil, errors.Wrapf(err, "failed to decode record %s", key)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetKeysByPrefix returns the distinct keys starting with prefix, sorted.
func (idx *DataIndexer[T]) GetKeysByPrefix(prefix string) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := idx.db.Query(`SELECT DISTINCT key FROM records WHERE key LIKE ? ESCAPE '\' ORDER BY key`, escaped+"%")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query keys")
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan key")
		}
		// LIKE is case-insensitive for ASCII; completion prefixes are not.
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}

// FilePaths returns every file with at least one record, sorted.
func (idx *DataIndexer[T]) FilePaths() ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query("SELECT DISTINCT file_path FROM records ORDER BY file_path")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query file paths")
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, errors.Wrap(err, "failed to scan file path")
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// DeleteFiles removes every record of the given files in one transaction.
func (idx *DataIndexer[T]) DeleteFiles(filePaths []string) error {
	if len(filePaths) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, filePath := range filePaths {
		if _, err := tx.Exec("DELETE FROM records WHERE file_path = ?", filePath); err != nil {
			return errors.Wrapf(err, "failed to delete records of %s", filePath)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit deletion")
}

// Clear removes every record.
func (idx *DataIndexer[T]) Clear() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec("DELETE FROM records"); err != nil {
		return errors.Wrap(err, "failed to clear records")
	}
	_, err := idx.db.Exec("PRAGMA incremental_vacuum")
	return errors.Wrap(err, "failed to vacuum index")
}

// Close checkpoints the WAL and closes the database.
func (idx *DataIndexer[T]) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, _ = idx.db.Exec("PRAGMA optimize")
	_, _ = idx.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return idx.db.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
