package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/go-chi/chi/v5"
)

type profilesResponse struct {
	ActiveProfileID string            `json:"active_profile_id"`
	Profiles        []*models.Profile `json:"profiles"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.profiles.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := s.profiles.Document(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profilesResponse{ActiveProfileID: doc.ActiveProfileID, Profiles: list})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	p, err := s.profiles.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.profiles.SetActive(r.Context(), req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_profile_id": req.ID})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRenameProfile(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	p, err := s.profiles.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplacePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	p, err := s.profiles.ReplacePlan(r.Context(), chi.URLParam(r, "id"), plan)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type calibrationRequest struct {
	MasterID    string  `json:"master_id"`
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	WeightEntry string  `json:"weight_entry"`
}

func decodeCalibration(w http.ResponseWriter, r *http.Request) (calibrationRequest, catalog.WeightEntry, bool) {
	var req calibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return req, "", false
	}
	entry, ok := catalog.ParseWeightEntry(req.WeightEntry)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight_entry must be total or perSide"})
		return req, "", false
	}
	return req, entry, true
}

// handleCalibrateExercise runs a calibration test for one plan exercise as a
// single draft edit and commit.
func (s *Server) handleCalibrateExercise(w http.ResponseWriter, r *http.Request) {
	day, err := parseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, entry, ok := decodeCalibration(w, r)
	if !ok {
		return
	}

	exerciseID := chi.URLParam(r, "exerciseID")
	draft, err := s.profiles.Draft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	orm, err := draft.Calibrate(day, exerciseID, req.Weight, req.Reps, entry)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.profiles.Commit(r.Context(), draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ex, _, _ := p.FindExercise(exerciseID)
	writeJSON(w, http.StatusOK, map[string]any{
		"one_rep_max": orm,
		"exercise":    ex,
	})
}

func (s *Server) handleCalibrateMaster(w http.ResponseWriter, r *http.Request) {
	req, entry, ok := decodeCalibration(w, r)
	if !ok {
		return
	}
	cal, err := s.profiles.CalibrateMaster(r.Context(), chi.URLParam(r, "id"), req.MasterID, req.Weight, req.Reps, entry)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// handlePrescription serves both /profiles/{id}/prescription and the
// active-profile shortcut /prescription.
func (s *Server) handlePrescription(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	day, err := s.profiles.Prescribe(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := s.profiles.History(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("exercise_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	var entry models.WorkoutLog
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	logged, err := s.profiles.LogWorkout(r.Context(), chi.URLParam(r, "id"), entry)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, logged)
}
