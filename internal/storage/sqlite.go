package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLite persists entries in a single kv table in a local database file.
type SQLite struct {
	db     *sql.DB
	logger *log.Logger
}

func Open(dbPath string, logger *log.Logger) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	dsn := sqliteDSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLite) Load(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("storage load failed")
		return "", false
	}
	return value, true
}

func (s *SQLite) Save(key, value string) {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("storage save failed")
	}
}

func (s *SQLite) Clear(key string) {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?;`, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("storage clear failed")
	}
}

// modernc.org/sqlite uses driver name "sqlite" and prefers a file: DSN.
// mode=rwc creates the database file if it doesn't exist.
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
