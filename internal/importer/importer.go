// Package importer loads and dumps the whole profiles document as JSON.
package importer

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
)

// Mode selects how an imported document is combined with the stored one.
type Mode string

const (
	// ModeReplace stores the imported document as is.
	ModeReplace Mode = "replace"
	// ModeMerge adds or overwrites profiles by id and keeps the stored active
	// profile unless none is set.
	ModeMerge Mode = "merge"
)

// ParseMode defaults to ModeReplace for an empty string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

// Stats summarizes an imported document.
type Stats struct {
	Profiles       int
	Exercises      int
	Calibrations   int
	HistoryEntries int
	Active         string
}

// Count summarizes doc.
func Count(doc *models.ProfilesData) Stats {
	st := Stats{Profiles: len(doc.Profiles), Active: doc.ActiveProfileID}
	for _, p := range doc.Profiles {
		for _, day := range p.Plan {
			if day != nil {
				st.Exercises += len(day.Exercises)
			}
		}
		st.Calibrations += len(p.Calibrations)
		st.HistoryEntries += len(p.History)
	}
	return st
}

// Decode reads and validates a profiles document. Gzip-compressed input is
// detected by its magic bytes.
func Decode(r io.Reader) (*models.ProfilesData, error) {
	plain, closeFn, err := maybeDecompress(r)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	dec := json.NewDecoder(plain)
	dec.DisallowUnknownFields()
	var doc models.ProfilesData
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w: %w", models.ErrInvalidDocument, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]*models.Profile)
	}
	for _, p := range doc.Profiles {
		if p != nil && p.Calibrations == nil {
			p.Calibrations = make(map[string]models.Calibration)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Importer writes imported documents to a store and records each attempt
// in the store's import log.
type Importer struct {
	store  storage.Store
	log    *slog.Logger
	dryRun bool
	mode   Mode
}

// New creates a new Importer.
func New(store storage.Store, log *slog.Logger, mode Mode, dryRun bool) *Importer {
	return &Importer{store: store, log: log, mode: mode, dryRun: dryRun}
}

// Import decodes r and stores the result. source names the input in the
// import log (a file name, "stdin" or "http").
func (imp *Importer) Import(ctx context.Context, r io.Reader, source string) (*Stats, error) {
	start := time.Now()
	stats, err := imp.importDocument(ctx, r)
	imp.record(ctx, source, stats, start, err)
	if err != nil {
		return stats, err
	}
	imp.log.Info("document imported", "source", source, "mode", imp.mode, "dry_run", imp.dryRun,
		"profiles", stats.Profiles, "exercises", stats.Exercises)
	return stats, nil
}

func (imp *Importer) importDocument(ctx context.Context, r io.Reader) (*Stats, error) {
	doc, err := Decode(r)
	if err != nil {
		return &Stats{}, err
	}
	stats := Count(doc)

	if imp.mode == ModeMerge {
		doc, err = imp.merge(ctx, doc)
		if err != nil {
			return &stats, err
		}
	}
	if imp.dryRun {
		return &stats, nil
	}
	if err := imp.store.Save(ctx, doc); err != nil {
		return &stats, fmt.Errorf("saving document: %w", err)
	}
	return &stats, nil
}

func (imp *Importer) merge(ctx context.Context, incoming *models.ProfilesData) (*models.ProfilesData, error) {
	current, err := imp.store.Load(ctx)
	if errors.Is(err, storage.ErrNoDocument) {
		return incoming, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading current document: %w", err)
	}
	for id, p := range incoming.Profiles {
		current.Profiles[id] = p
	}
	if current.ActiveProfileID == "" {
		current.ActiveProfileID = incoming.ActiveProfileID
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}
	return current, nil
}

func (imp *Importer) record(ctx context.Context, source string, stats *Stats, start time.Time, importErr error) {
	ms := int(time.Since(start).Milliseconds())
	entry := storage.ImportLog{
		CreatedAt:  time.Now().UTC(),
		Source:     source,
		Status:     "success",
		DryRun:     imp.dryRun,
		DurationMs: &ms,
	}
	if stats != nil {
		entry.ProfilesReceived = stats.Profiles
		entry.ExercisesTotal = stats.Exercises
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if _, err := imp.store.InsertImportLog(ctx, entry); err != nil {
		imp.log.Warn("failed to write import log", "error", err)
	}
}

// Export writes the stored document as indented JSON, gzip-compressed when
// compress is set. An empty store exports the default document.
func Export(ctx context.Context, store storage.DocumentStore, w io.Writer, compress bool) error {
	doc, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNoDocument) {
		doc = models.DefaultProfilesData(time.Now().UTC())
	} else if err != nil {
		return err
	}

	out := w
	var zw *gzip.Writer
	if compress {
		zw = gzip.NewWriter(w)
		out = zw
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}
