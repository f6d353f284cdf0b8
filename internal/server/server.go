package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftplan/internal/profiles"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	profiles      *profiles.Service
	store         storage.Store
	log           *slog.Logger
	whois         WhoIser
	timerInterval time.Duration
	now           func() time.Time
	router        chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTimerInterval sets the tick period of streamed rest timers.
func WithTimerInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timerInterval = d
		}
	}
}

// WithClock overrides the clock used when a request carries no date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server with all routes configured.
func New(svc *profiles.Service, store storage.Store, log *slog.Logger, opts ...Option) *Server {
	s := &Server{
		profiles:      svc,
		store:         store,
		log:           log,
		timerInterval: time.Second,
		now:           time.Now,
		router:        chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// SetTailscale enables tailnet identity lookup for requests.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		// Calculators
		r.Get("/phase", s.handlePhase)
		r.Get("/phases", s.handlePhases)
		r.Post("/one-rep-max", s.handleOneRepMax)
		r.Get("/working-load", s.handleWorkingLoad)
		r.Get("/exercises", s.handleExercises)
		r.Get("/rest-timer/events", s.handleRestTimerEvents)

		// Profiles
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Put("/profiles/active", s.handleSetActiveProfile)
		r.Get("/prescription", s.handlePrescription)
		r.Route("/profiles/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Patch("/", s.handleRenameProfile)
			r.Delete("/", s.handleDeleteProfile)
			r.Put("/plan", s.handleReplacePlan)
			r.Post("/plan/{day}/exercises/{exerciseID}/calibration", s.handleCalibrateExercise)
			r.Post("/calibrations", s.handleCalibrateMaster)
			r.Get("/prescription", s.handlePrescription)
			r.Get("/history", s.handleHistory)
			r.Post("/history", s.handleLogWorkout)
		})

		// Document import/export
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/import-logs", s.handleImportLogs)
	})
}
