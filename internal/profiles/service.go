// Package profiles manages training profiles stored in a single document:
// creation, selection, plan edits, calibration and workout history.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/schedule"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/training"
	"github.com/google/uuid"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrNoActiveProfile  = errors.New("no active profile")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrInvalidDay       = errors.New("invalid weekday")
	ErrInvalidName      = errors.New("invalid name")
	ErrUnknownExercise  = catalog.ErrUnknownExercise
)

// Service applies profile operations as load-modify-save cycles on the
// document store. Operations on one Service are serialized; separate
// processes sharing a store are last-write-wins.
type Service struct {
	store storage.DocumentStore
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how profile and exercise ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service backed by store.
func NewService(store storage.DocumentStore, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document returns the stored document, or the default document when
// nothing has been saved yet.
func (s *Service) Document(ctx context.Context) (*models.ProfilesData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load must be called with mu held.
func (s *Service) load(ctx context.Context) (*models.ProfilesData, error) {
	doc, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNoDocument) {
		return models.DefaultProfilesData(s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// update runs fn on a freshly loaded document and saves the result.
func (s *Service) update(ctx context.Context, fn func(doc *models.ProfilesData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	return s.store.Save(ctx, doc)
}

func lookup(doc *models.ProfilesData, id string) (*models.Profile, error) {
	p, ok := doc.Profiles[id]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// List returns all profiles ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*models.Profile, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Profile, 0, len(doc.Profiles))
	for _, p := range doc.Profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Create adds a profile with a blank plan and makes it active.
func (s *Service) Create(ctx context.Context, name string) (*models.Profile, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	p := models.NewProfile(s.newID(), name, s.now())
	err = s.update(ctx, func(doc *models.ProfilesData) error {
		if _, exists := doc.Profiles[p.ID]; exists {
			return fmt.Errorf("profile id %s already in use", p.ID)
		}
		doc.Profiles[p.ID] = p
		doc.ActiveProfileID = p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("profile created", "id", p.ID, "name", p.Name)
	return p, nil
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return lookup(doc, id)
}

// Active returns the active profile.
func (s *Service) Active(ctx context.Context) (*models.Profile, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	p := doc.Active()
	if p == nil {
		return nil, ErrNoActiveProfile
	}
	return p, nil
}

// resolve returns the profile with id, or the active profile when id is empty.
func (s *Service) resolve(ctx context.Context, id string) (*models.Profile, error) {
	if id == "" {
		return s.Active(ctx)
	}
	return s.Get(ctx, id)
}

// SetActive selects the active profile.
func (s *Service) SetActive(ctx context.Context, id string) error {
	err := s.update(ctx, func(doc *models.ProfilesData) error {
		if _, err := lookup(doc, id); err != nil {
			return err
		}
		doc.ActiveProfileID = id
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("active profile changed", "id", id)
	return nil
}

// Delete removes a profile. Deleting the active profile leaves no profile active.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.update(ctx, func(doc *models.ProfilesData) error {
		if _, err := lookup(doc, id); err != nil {
			return err
		}
		delete(doc.Profiles, id)
		if doc.ActiveProfileID == id {
			doc.ActiveProfileID = ""
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("profile deleted", "id", id)
	return nil
}

// Rename changes a profile's display name.
func (s *Service) Rename(ctx context.Context, id, name string) (*models.Profile, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var result *models.Profile
	err = s.update(ctx, func(doc *models.ProfilesData) error {
		p, err := lookup(doc, id)
		if err != nil {
			return err
		}
		p.Name = name
		p.UpdatedAt = s.now()
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Draft starts a plan edit. The draft is a deep copy; nothing is stored
// until it is passed to Commit.
func (s *Service) Draft(ctx context.Context, id string) (*PlanDraft, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	calibrations := make(map[string]models.Calibration, len(p.Calibrations))
	for k, v := range p.Calibrations {
		calibrations[k] = v
	}
	return &PlanDraft{
		profileID:    p.ID,
		plan:         p.Plan.Clone(),
		calibrations: calibrations,
		newID:        s.newID,
	}, nil
}

// Commit replaces the profile's whole plan with the draft's plan.
func (s *Service) Commit(ctx context.Context, d *PlanDraft) (*models.Profile, error) {
	if d == nil {
		return nil, fmt.Errorf("commit: nil draft")
	}
	return s.ReplacePlan(ctx, d.profileID, d.Plan())
}

// ReplacePlan validates plan and stores it as the profile's plan.
func (s *Service) ReplacePlan(ctx context.Context, id string, plan models.Plan) (*models.Profile, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	var result *models.Profile
	err := s.update(ctx, func(doc *models.ProfilesData) error {
		p, err := lookup(doc, id)
		if err != nil {
			return err
		}
		p.Plan = plan.Clone()
		p.UpdatedAt = s.now()
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("plan saved", "profile", id, "exercises", countExercises(plan))
	return result, nil
}

func countExercises(plan models.Plan) int {
	n := 0
	for _, day := range plan {
		if day != nil {
			n += len(day.Exercises)
		}
	}
	return n
}

// CalibrateMaster records a strength test for a master exercise on the
// profile and copies the resulting one-rep-max to every calibrated exercise
// in the plan that references it.
func (s *Service) CalibrateMaster(ctx context.Context, id, masterID string, weight float64, reps int, entry catalog.WeightEntry) (models.Calibration, error) {
	master, ok := catalog.Lookup(masterID)
	if !ok {
		return models.Calibration{}, fmt.Errorf("%w: %s", ErrUnknownExercise, masterID)
	}
	total, err := master.TotalWeight(weight, entry)
	if err != nil {
		return models.Calibration{}, err
	}
	orm, err := training.EstimateOneRepMax(total, reps)
	if err != nil {
		return models.Calibration{}, err
	}
	cal := models.Calibration{
		MasterID:     masterID,
		Test:         models.CalibrationTest{Weight: total, Reps: reps},
		OneRepMax:    orm,
		CalibratedAt: s.now(),
	}

	updated := 0
	err = s.update(ctx, func(doc *models.ProfilesData) error {
		p, err := lookup(doc, id)
		if err != nil {
			return err
		}
		if p.Calibrations == nil {
			p.Calibrations = make(map[string]models.Calibration)
		}
		p.Calibrations[masterID] = cal
		for _, day := range p.Plan {
			if day == nil {
				continue
			}
			for i := range day.Exercises {
				ex := &day.Exercises[i]
				if ex.MasterID == masterID && ex.Mode == models.ModeCalibrated {
					test := cal.Test
					ex.Calibration = &test
					ex.OneRepMax = orm
					updated++
				}
			}
		}
		p.UpdatedAt = cal.CalibratedAt
		return nil
	})
	if err != nil {
		return models.Calibration{}, err
	}
	s.log.Info("calibration saved", "profile", id, "exercise", masterID, "one_rep_max", orm, "plan_exercises", updated)
	return cal, nil
}

// LogWorkout appends performed sets to the profile history. The phase is
// filled in from the log date when missing.
func (s *Service) LogWorkout(ctx context.Context, id string, entry models.WorkoutLog) (models.WorkoutLog, error) {
	if err := entry.Validate(); err != nil {
		return models.WorkoutLog{}, err
	}
	if entry.Phase == "" {
		date, _ := time.Parse("2006-01-02", entry.Date)
		entry.Phase = string(training.PhaseFor(date).Phase)
	} else if _, ok := training.ParsePhase(entry.Phase); !ok {
		return models.WorkoutLog{}, fmt.Errorf("unknown phase %q: %w", entry.Phase, training.ErrInvalidArgument)
	}

	err := s.update(ctx, func(doc *models.ProfilesData) error {
		p, err := lookup(doc, id)
		if err != nil {
			return err
		}
		if _, _, ok := p.FindExercise(entry.ExerciseID); !ok {
			return fmt.Errorf("%w: %s", ErrExerciseNotFound, entry.ExerciseID)
		}
		p.History = append(p.History, entry)
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return models.WorkoutLog{}, err
	}
	s.log.Debug("workout logged", "profile", id, "exercise", entry.ExerciseID, "sets", len(entry.Sets))
	return entry, nil
}

// History returns the profile's workout logs, optionally for one exercise,
// in the order they were logged.
func (s *Service) History(ctx context.Context, id, exerciseID string) ([]models.WorkoutLog, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := []models.WorkoutLog{}
	for _, l := range p.History {
		if exerciseID == "" || l.ExerciseID == exerciseID {
			result = append(result, l)
		}
	}
	return result, nil
}

// Prescribe builds the prescription for date from a profile, or from the
// active profile when id is empty.
func (s *Service) Prescribe(ctx context.Context, id string, date time.Time) (schedule.Day, error) {
	p, err := s.resolve(ctx, id)
	if err != nil {
		return schedule.Day{}, err
	}
	return schedule.Build(p, date), nil
}
