package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/profiles"
	"github.com/claude/liftplan/internal/schedule"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/training"
)

// Monday of a lowVolume week.
var testNow = time.Date(2025, 1, 13, 9, 0, 0, 0, time.Local)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := 0
	svc := profiles.NewService(store, log,
		profiles.WithClock(func() time.Time { return testNow }),
		profiles.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	srv := New(svc, store, log,
		WithClock(func() time.Time { return testNow }),
		WithTimerInterval(5*time.Millisecond),
	)
	return srv, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestHandlePhase(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query     string
		wantPhase string
		wantWeek  int
		wantRest  string
	}{
		{"", "lowVolume", 3, "04:00"},
		{"?date=2025-01-06", "mediumVolume", 2, "03:00"},
		{"?date=2025-01-20", "highVolume", 4, "03:00"},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodGet, "/api/v1/phase"+tt.query, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", tt.query, rec.Code)
		}
		var resp phaseResponse
		decode(t, rec, &resp)
		if string(resp.Phase.Phase) != tt.wantPhase {
			t.Errorf("%s: phase = %s, want %s", tt.query, resp.Phase.Phase, tt.wantPhase)
		}
		if resp.Week != tt.wantWeek {
			t.Errorf("%s: week = %d, want %d", tt.query, resp.Week, tt.wantWeek)
		}
		if resp.Rest != tt.wantRest {
			t.Errorf("%s: rest = %q, want %q", tt.query, resp.Rest, tt.wantRest)
		}
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/phase?date=13/01/2025", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}
}

func TestHandlePhases(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/phases", nil)
	var table []training.TableEntry
	decode(t, rec, &table)
	if len(table) != 3 {
		t.Fatalf("len = %d, want 3", len(table))
	}
	if table[2].Name != "Workout 3" || table[2].Sets != 4 || table[2].Reps != "4-6" {
		t.Errorf("lowVolume entry = %+v", table[2])
	}
}

func TestHandleOneRepMax(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantTotal  float64
		wantORM    float64
	}{
		{"total", map[string]any{"weight": 100, "reps": 10}, http.StatusOK, 100, 133.33},
		{"single rep", map[string]any{"weight": 120, "reps": 1}, http.StatusOK, 120, 120},
		{"per side bench", map[string]any{"weight": 40, "reps": 10, "exercise_id": "barbell_bench_press", "weight_entry": "perSide"}, http.StatusOK, 100, 133.33},
		{"per side machine", map[string]any{"weight": 40, "reps": 10, "exercise_id": "leg_press_45", "weight_entry": "perSide"}, http.StatusOK, 40, 53.33},
		{"zero reps", map[string]any{"weight": 100, "reps": 0}, http.StatusOK, 100, 0},
		{"negative weight", map[string]any{"weight": -5, "reps": 5}, http.StatusBadRequest, 0, 0},
		{"unknown exercise", map[string]any{"weight": 5, "reps": 5, "exercise_id": "nope"}, http.StatusBadRequest, 0, 0},
		{"negative per side", map[string]any{"weight": -5, "reps": 5, "exercise_id": "barbell_bench_press", "weight_entry": "perSide"}, http.StatusBadRequest, 0, 0},
		{"per side without exercise", map[string]any{"weight": 40, "reps": 5, "weight_entry": "perSide"}, http.StatusBadRequest, 0, 0},
		{"bad entry", map[string]any{"weight": 5, "reps": 5, "weight_entry": "left"}, http.StatusBadRequest, 0, 0},
		{"bad json", "{", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/one-rep-max", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp oneRepMaxResponse
			decode(t, rec, &resp)
			if resp.TotalWeight != tt.wantTotal {
				t.Errorf("total = %v, want %v", resp.TotalWeight, tt.wantTotal)
			}
			if resp.OneRepMax != tt.wantORM {
				t.Errorf("one_rep_max = %v, want %v", resp.OneRepMax, tt.wantORM)
			}
		})
	}
}

func TestHandleWorkingLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		query       string
		wantStatus  int
		wantDisplay string
	}{
		{"?one_rep_max=100&phase=lowVolume", http.StatusOK, "80kg - 90kg"},
		{"?one_rep_max=100&phase=highVolume", http.StatusOK, "60kg - 70kg"},
		{"?one_rep_max=100", http.StatusOK, "80kg - 90kg"},
		{"?one_rep_max=100&date=2025-01-06", http.StatusOK, "70kg - 80kg"},
		{"?one_rep_max=0&phase=lowVolume", http.StatusOK, "N/A"},
		{"?one_rep_max=100&phase=deload", http.StatusOK, "N/A"},
		{"?one_rep_max=-1&phase=lowVolume", http.StatusBadRequest, ""},
		{"", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := do(t, srv, http.MethodGet, "/api/v1/working-load"+tt.query, nil)
		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.query, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}
		var resp workingLoadResponse
		decode(t, rec, &resp)
		if got := resp.Load.String(); got != tt.wantDisplay {
			t.Errorf("%s: load = %q, want %q", tt.query, got, tt.wantDisplay)
		}
	}
}

func TestHandleExercises(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/exercises", nil)
	var list []map[string]any
	decode(t, rec, &list)
	if len(list) == 0 {
		t.Error("exercise catalog is empty")
	}
}

func TestProfileLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/profiles", map[string]string{"name": "Strength"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created models.Profile
	decode(t, rec, &created)
	if created.ID != "id-1" || created.Name != "Strength" {
		t.Errorf("created = %s %q", created.ID, created.Name)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/profiles", nil)
	var list profilesResponse
	decode(t, rec, &list)
	if list.ActiveProfileID != "id-1" {
		t.Errorf("active = %q, want id-1", list.ActiveProfileID)
	}
	if len(list.Profiles) != 2 {
		t.Errorf("len(profiles) = %d, want 2", len(list.Profiles))
	}

	rec = do(t, srv, http.MethodPut, "/api/v1/profiles/active", map[string]string{"id": models.DefaultProfileID})
	if rec.Code != http.StatusOK {
		t.Errorf("set active status = %d, want 200", rec.Code)
	}

	rec = do(t, srv, http.MethodPatch, "/api/v1/profiles/id-1", map[string]string{"name": "Power"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d, want 200", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/v1/profiles/id-1", nil)
	var got models.Profile
	decode(t, rec, &got)
	if got.Name != "Power" {
		t.Errorf("name = %q, want Power", got.Name)
	}

	rec = do(t, srv, http.MethodPatch, "/api/v1/profiles/id-1", map[string]string{"name": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank rename status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/v1/profiles/id-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/v1/profiles/id-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
	rec = do(t, srv, http.MethodPut, "/api/v1/profiles/active", map[string]string{"id": "id-1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("activate deleted status = %d, want 404", rec.Code)
	}
}

func benchPlan() models.Plan {
	var plan models.Plan
	plan[time.Monday] = &models.DayPlan{
		Name: "Push",
		Exercises: []models.Exercise{
			{ID: "bench", Name: "Bench", MasterID: "barbell_bench_press", Mode: models.ModeCalibrated},
			{ID: "dips", Name: "Dips", Mode: models.ModeManual, Manual: &models.ManualPrescription{Sets: "3", Reps: "AMRAP"}},
		},
	}
	return plan
}

func TestPlanCalibrationAndPrescription(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/api/v1/profiles/" + models.DefaultProfileID

	rec := do(t, srv, http.MethodPut, base+"/plan", benchPlan())
	if rec.Code != http.StatusOK {
		t.Fatalf("replace plan status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/prescription", nil)
	var day schedule.Day
	decode(t, rec, &day)
	if day.Rest || day.Name != "Push" || len(day.Exercises) != 2 {
		t.Fatalf("day = %+v", day)
	}
	if day.Exercises[0].Load != schedule.LoadCalibrate {
		t.Errorf("uncalibrated load = %q, want %q", day.Exercises[0].Load, schedule.LoadCalibrate)
	}
	if day.Exercises[1].Load != schedule.LoadUnset || day.Exercises[1].Reps != "AMRAP" {
		t.Errorf("manual item = %+v", day.Exercises[1])
	}

	rec = do(t, srv, http.MethodPost, base+"/plan/monday/exercises/bench/calibration",
		map[string]any{"weight": 40, "reps": 10, "weight_entry": "perSide"})
	if rec.Code != http.StatusOK {
		t.Fatalf("calibrate status = %d: %s", rec.Code, rec.Body.String())
	}
	var cal struct {
		OneRepMax float64         `json:"one_rep_max"`
		Exercise  models.Exercise `json:"exercise"`
	}
	decode(t, rec, &cal)
	if cal.OneRepMax != 133.33 {
		t.Errorf("one_rep_max = %v, want 133.33", cal.OneRepMax)
	}
	if cal.Exercise.Calibration == nil || cal.Exercise.Calibration.Weight != 100 {
		t.Errorf("stored test = %+v, want total weight 100", cal.Exercise.Calibration)
	}

	rec = do(t, srv, http.MethodGet, base+"/prescription?date=2025-01-13", nil)
	decode(t, rec, &day)
	item := day.Exercises[0]
	if item.Sets != "4" || item.Reps != "4-6" || item.RestSeconds != 240 {
		t.Errorf("item = %+v", item)
	}
	if item.Load != "107.5kg - 120kg" {
		t.Errorf("load = %q, want %q", item.Load, "107.5kg - 120kg")
	}

	rec = do(t, srv, http.MethodGet, base+"/prescription?date=2025-01-14", nil)
	decode(t, rec, &day)
	if !day.Rest {
		t.Errorf("tuesday rest = false, want true")
	}

	rec = do(t, srv, http.MethodPost, base+"/plan/8/exercises/bench/calibration", map[string]any{"weight": 1, "reps": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad day status = %d, want 400", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, base+"/plan/tuesday/exercises/bench/calibration", map[string]any{"weight": 1, "reps": 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong day status = %d, want 404", rec.Code)
	}
}

func TestReplacePlanInvalid(t *testing.T) {
	srv, _ := newTestServer(t)
	plan := benchPlan()
	plan[time.Monday].Exercises[1].ID = "bench"

	rec := do(t, srv, http.MethodPut, "/api/v1/profiles/default/plan", plan)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate id status = %d, want 400", rec.Code)
	}
}

func TestCalibrateMaster(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/api/v1/profiles/default/plan", benchPlan())

	rec := do(t, srv, http.MethodPost, "/api/v1/profiles/default/calibrations",
		map[string]any{"master_id": "barbell_bench_press", "weight": 100, "reps": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var cal models.Calibration
	decode(t, rec, &cal)
	if cal.OneRepMax != 116.67 {
		t.Errorf("one_rep_max = %v, want 116.67", cal.OneRepMax)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/profiles/default", nil)
	var p models.Profile
	decode(t, rec, &p)
	if got := p.Plan[time.Monday].Exercises[0].OneRepMax; got != 116.67 {
		t.Errorf("plan exercise one_rep_max = %v, want 116.67", got)
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/profiles/default/calibrations",
		map[string]any{"master_id": "kettlebell_swing", "weight": 10, "reps": 5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown master status = %d, want 400", rec.Code)
	}
}

func TestWorkoutHistory(t *testing.T) {
	srv, _ := newTestServer(t)
	base := "/api/v1/profiles/default"
	do(t, srv, http.MethodPut, base+"/plan", benchPlan())

	rec := do(t, srv, http.MethodPost, base+"/history", models.WorkoutLog{
		Date:       "2025-01-13",
		ExerciseID: "bench",
		Sets:       []models.LoggedSet{{Reps: 5, Load: 100}, {Reps: 5, Load: 100}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log status = %d: %s", rec.Code, rec.Body.String())
	}
	var logged models.WorkoutLog
	decode(t, rec, &logged)
	if logged.Phase != "lowVolume" {
		t.Errorf("phase = %q, want lowVolume", logged.Phase)
	}

	rec = do(t, srv, http.MethodPost, base+"/history", models.WorkoutLog{Date: "2025-01-13", ExerciseID: "squat"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown exercise status = %d, want 404", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, base+"/history", models.WorkoutLog{Date: "yesterday", ExerciseID: "bench"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, base+"/history?exercise_id=bench", nil)
	var logs []models.WorkoutLog
	decode(t, rec, &logs)
	if len(logs) != 1 || len(logs[0].Sets) != 2 {
		t.Errorf("history = %+v", logs)
	}
	rec = do(t, srv, http.MethodGet, base+"/history?exercise_id=dips", nil)
	decode(t, rec, &logs)
	if len(logs) != 0 {
		t.Errorf("dips history len = %d, want 0", len(logs))
	}
}

func TestExportImport(t *testing.T) {
	srv, store := newTestServer(t)
	do(t, srv, http.MethodPut, "/api/v1/profiles/default/plan", benchPlan())

	rec := do(t, srv, http.MethodGet, "/api/v1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	exported := rec.Body.String()
	if !strings.Contains(exported, `"activeProfileId"`) {
		t.Errorf("export missing activeProfileId: %s", exported)
	}

	do(t, srv, http.MethodDelete, "/api/v1/profiles/default", nil)

	rec = do(t, srv, http.MethodPost, "/api/v1/import?dry_run=true", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("dry run status = %d: %s", rec.Code, rec.Body.String())
	}
	doc, err := store.Load(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Profiles) != 0 {
		t.Errorf("dry run saved %d profiles", len(doc.Profiles))
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	var stats map[string]any
	decode(t, rec, &stats)
	if stats["profiles"] != float64(1) || stats["exercises"] != float64(2) {
		t.Errorf("stats = %v", stats)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/profiles/default", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("imported profile status = %d, want 200", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/import", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", rec.Code)
	}
	rec = do(t, srv, http.MethodPost, "/api/v1/import?mode=append", exported)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d, want 400", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/import-logs?limit=2", nil)
	var logs []storage.ImportLog
	decode(t, rec, &logs)
	if len(logs) != 2 {
		t.Fatalf("len(import logs) = %d, want 2", len(logs))
	}
	if logs[0].Status != "error" || logs[1].Status != "success" {
		t.Errorf("statuses = %s, %s", logs[0].Status, logs[1].Status)
	}
}

func TestHandleMe(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/me", nil)
	var info UserInfo
	decode(t, rec, &info)
	if info != localUser {
		t.Errorf("me = %+v, want %+v", info, localUser)
	}
}

// TestRestTimerEvents streams a short countdown through a real server.
func TestRestTimerEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/rest-timer/events?seconds=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	stream := string(body)

	for _, want := range []string{
		"event: status\ndata: {\"state\":\"idle\",\"remaining\":2,\"duration\":2,\"display\":\"00:02\"}",
		"event: tick\ndata: {\"state\":\"running\",\"remaining\":1,\"duration\":2,\"display\":\"00:01\"}",
		"event: expired\ndata: {\"state\":\"expired\",\"remaining\":0,\"duration\":2,\"display\":\"00:00\"}",
	} {
		if !strings.Contains(stream, want) {
			t.Errorf("stream missing %q:\n%s", want, stream)
		}
	}
}

func TestRestTimerEventsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, q := range []string{"?seconds=0", "?seconds=abc", "?phase=deload"} {
		rec := do(t, srv, http.MethodGet, "/api/v1/rest-timer/events"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}
