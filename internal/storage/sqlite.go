package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/liftplan/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the profiles document in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("opening sqlite store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// One writer at a time keeps whole-document saves serialized.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS profile_documents (
		id         INTEGER PRIMARY KEY,
		document   TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err == nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS import_logs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at        TIMESTAMP NOT NULL,
			source            TEXT NOT NULL,
			status            TEXT NOT NULL,
			profiles_received INTEGER NOT NULL DEFAULT 0,
			exercises_total   INTEGER NOT NULL DEFAULT 0,
			dry_run           BOOLEAN NOT NULL DEFAULT 0,
			duration_ms       INTEGER,
			error_message     TEXT
		)`)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the profiles document.
func (s *SQLiteStore) Load(ctx context.Context) (*models.ProfilesData, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM profile_documents WHERE id = ?`, documentRowID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return decodeDocument([]byte(data))
}

// Save replaces the profiles document.
func (s *SQLiteStore) Save(ctx context.Context, doc *models.ProfilesData) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO profile_documents (id, document, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		documentRowID, string(data))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// InsertImportLog creates a new import log entry and returns its ID.
func (s *SQLiteStore) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_logs (created_at, source, status, profiles_received, exercises_total,
		 dry_run, duration_ms, error_message) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt, log.Source, log.Status, log.ProfilesReceived, log.ExercisesTotal,
		log.DryRun, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return res.LastInsertId()
}

// QueryImportLogs returns the most recent import logs.
func (s *SQLiteStore) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, status, profiles_received, exercises_total, dry_run,
		 duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var (
			l          ImportLog
			durationMs sql.NullInt64
			errMsg     sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status, &l.ProfilesReceived,
			&l.ExercisesTotal, &l.DryRun, &durationMs, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		if durationMs.Valid {
			ms := int(durationMs.Int64)
			l.DurationMs = &ms
		}
		if errMsg.Valid {
			l.ErrorMessage = &errMsg.String
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
