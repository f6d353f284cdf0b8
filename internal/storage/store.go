package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/models"
)

// ErrNoDocument is returned by Load when no document has been saved yet.
var ErrNoDocument = errors.New("no profiles document")

// DocumentStore persists the profiles document. Every Save replaces the
// whole document; concurrent writers are last-write-wins.
type DocumentStore interface {
	Load(ctx context.Context) (*models.ProfilesData, error)
	Save(ctx context.Context, doc *models.ProfilesData) error
	Close() error
}

// ImportLogStore records the outcome of document imports.
type ImportLogStore interface {
	InsertImportLog(ctx context.Context, log ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error)
}

// Store is implemented by every backend.
type Store interface {
	DocumentStore
	ImportLogStore
}

// Compile-time checks.
var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	ProfilesReceived int       `json:"profiles_received"`
	ExercisesTotal   int       `json:"exercises_total"`
	DryRun           bool      `json:"dry_run"`
	DurationMs       *int      `json:"duration_ms"`
	ErrorMessage     *string   `json:"error_message"`
}

const defaultImportLogLimit = 50

// Options selects and configures a backend for Open.
type Options struct {
	Driver         string // "sqlite", "postgres" or "memory"
	Path           string // sqlite file
	DSN            string // postgres connection string
	MigrationsPath string // postgres migrations directory
}

// OptionsFromConfig selects the backend configured in cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:         cfg.Storage.Driver,
		Path:           cfg.Storage.Path,
		DSN:            cfg.Database.DSN(),
		MigrationsPath: cfg.Storage.Migrations,
	}
}

// Open creates the backend named by opts.Driver. Postgres migrations are
// applied before connecting.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return OpenSQLite(opts.Path)
	case "postgres":
		if opts.MigrationsPath != "" {
			if err := RunMigrations(opts.DSN, opts.MigrationsPath); err != nil {
				return nil, err
			}
		}
		return NewPostgres(ctx, opts.DSN)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func encodeDocument(doc *models.ProfilesData) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("encoding document: nil document")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (*models.ProfilesData, error) {
	var doc models.ProfilesData
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]*models.Profile)
	}
	return &doc, nil
}
