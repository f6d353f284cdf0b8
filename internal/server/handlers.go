package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/profiles"
	"github.com/claude/liftplan/internal/timer"
	"github.com/claude/liftplan/internal/training"
)

type phaseResponse struct {
	Date   string                `json:"date"`
	Week   int                   `json:"week"`
	Phase  training.Prescription `json:"phase"`
	Config training.PhaseConfig  `json:"config"`
	Rest   string                `json:"rest"`
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rx := training.PhaseFor(date)
	cfg, _ := training.Config(rx.Phase)
	writeJSON(w, http.StatusOK, phaseResponse{
		Date:   date.Format(dateLayout),
		Week:   training.WeekOfYear(date),
		Phase:  rx,
		Config: cfg,
		Rest:   timer.FormatRemaining(cfg.RestSeconds),
	})
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, training.Table())
}

type oneRepMaxRequest struct {
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	ExerciseID  string  `json:"exercise_id"`
	WeightEntry string  `json:"weight_entry"`
}

type oneRepMaxResponse struct {
	TotalWeight float64 `json:"total_weight"`
	Reps        int     `json:"reps"`
	OneRepMax   float64 `json:"one_rep_max"`
}

func (s *Server) handleOneRepMax(w http.ResponseWriter, r *http.Request) {
	var req oneRepMaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	entry, ok := catalog.ParseWeightEntry(req.WeightEntry)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight_entry must be total or perSide"})
		return
	}

	total, err := catalog.EnteredTotal(req.ExerciseID, req.Weight, entry)
	if err != nil {
		s.writeError(w, err)
		return
	}

	orm, err := training.EstimateOneRepMax(total, req.Reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, oneRepMaxResponse{TotalWeight: total, Reps: req.Reps, OneRepMax: orm})
}

type workingLoadResponse struct {
	OneRepMax float64            `json:"one_rep_max"`
	Phase     training.Phase     `json:"phase"`
	Load      training.LoadRange `json:"load"`
}

func (s *Server) handleWorkingLoad(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orm, err := strconv.ParseFloat(q.Get("one_rep_max"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "one_rep_max parameter must be a number"})
		return
	}

	// An unrecognized phase is not an error: the load is simply unavailable.
	phase := training.Phase(q.Get("phase"))
	if phase == "" {
		date, err := s.parseDate(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		phase = training.PhaseFor(date).Phase
	}

	load, err := training.WorkingLoad(orm, phase)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workingLoadResponse{OneRepMax: orm, Phase: phase, Load: load})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// handleRestTimerEvents streams a rest countdown as server-sent events. The
// timer lives as long as the request: a disconnect stops it.
func (s *Server) handleRestTimerEvents(w http.ResponseWriter, r *http.Request) {
	seconds, err := s.restSeconds(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	rt := timer.New(seconds, timer.WithInterval(s.timerInterval), timer.WithLogger(s.log))
	defer rt.Close()

	events := make(chan sseEvent, 8)
	stop := make(chan struct{})
	defer close(stop)
	send := func(event string, snap timer.Snapshot) {
		select {
		case events <- sseEvent{Event: event, Data: mustJSON(timerEvent(snap))}:
		case <-stop:
		}
	}
	rt.OnTick(func(snap timer.Snapshot) { send("tick", snap) })
	rt.OnExpired(func(snap timer.Snapshot) { send("expired", snap) })

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: status\ndata: %s\n\n", mustJSON(timerEvent(rt.Snapshot())))
	flusher.Flush()
	rt.Start()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
			flusher.Flush()
			if evt.Event == "expired" {
				return
			}
		}
	}
}

// restSeconds picks the countdown length from ?seconds=, ?phase= or the
// phase of ?date= (default today).
func (s *Server) restSeconds(r *http.Request) (int, error) {
	q := r.URL.Query()
	if v := q.Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("seconds must be a positive integer")
		}
		return n, nil
	}
	phase := training.Phase(q.Get("phase"))
	if phase == "" {
		date, err := s.parseDate(r)
		if err != nil {
			return 0, err
		}
		phase = training.PhaseFor(date).Phase
	}
	cfg, ok := training.Config(phase)
	if !ok {
		return 0, fmt.Errorf("unknown phase %q", phase)
	}
	return cfg.RestSeconds, nil
}

type timerEventData struct {
	timer.Snapshot
	Display string `json:"display"`
}

func timerEvent(snap timer.Snapshot) timerEventData {
	return timerEventData{Snapshot: snap, Display: snap.String()}
}

// sseEvent is an SSE message to send to a client.
type sseEvent struct {
	Event string
	Data  string
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound),
		errors.Is(err, profiles.ErrExerciseNotFound),
		errors.Is(err, profiles.ErrNoActiveProfile):
		status = http.StatusNotFound
	case errors.Is(err, profiles.ErrInvalidDay),
		errors.Is(err, profiles.ErrInvalidName),
		errors.Is(err, catalog.ErrUnknownExercise),
		errors.Is(err, training.ErrInvalidArgument),
		errors.Is(err, models.ErrInvalidDocument):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

const dateLayout = "2006-01-02"

// parseDate reads ?date=YYYY-MM-DD as a local calendar date, defaulting to
// today.
func (s *Server) parseDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return s.now(), nil
	}
	d, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return d, nil
}

// parseWeekday accepts 0-6 (0 = Sunday) or an English day name.
func parseWeekday(v string) (time.Weekday, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: %d", profiles.ErrInvalidDay, n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), v) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", profiles.ErrInvalidDay, v)
}
