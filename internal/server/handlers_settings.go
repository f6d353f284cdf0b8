package server

import (
	"net/http"
	"strconv"

	"github.com/claude/liftplan/internal/importer"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="liftplan-profiles.json"`)
	if err := importer.Export(r.Context(), s.store, w, false); err != nil {
		s.log.Error("export failed", "error", err)
	}
}

// handleImport replaces (or with ?mode=merge, merges into) the stored
// document. ?dry_run=true validates without saving.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := importer.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	imp := importer.New(s.store, s.log, mode, dryRun)
	stats, err := imp.Import(r.Context(), r.Body, "http")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profiles":        stats.Profiles,
		"exercises":       stats.Exercises,
		"calibrations":    stats.Calibrations,
		"history_entries": stats.HistoryEntries,
		"active":          stats.Active,
		"dry_run":         dryRun,
	})
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
