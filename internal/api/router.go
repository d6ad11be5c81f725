package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/attempts"
	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/booking"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/kanban"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/matching"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
	"github.com/hackgods/clinic-journey-scheduling/internal/stages"
)

type BookingService interface {
	GetAvailableSlots(ctx context.Context) ([]slots.Slot, error)
	MatchPublic(ctx context.Context, demand cases.Demand) ([]slots.Slot, error)
	CheckExistingCaseByTaxID(ctx context.Context, taxID string) (booking.LookupResult, error)
	BookSlot(ctx context.Context, req booking.BookRequest) (booking.BookResult, error)
	CancelBooking(ctx context.Context, id uuid.UUID, actor string) (*booking.Booking, error)
	ManualMatches(ctx context.Context, caseID uuid.UUID) ([]matching.ProfessionalMatches, error)
}

type CaseService interface {
	CreateIntake(ctx context.Context, actor string, req cases.IntakeRequest) (*cases.CaseRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*cases.CaseRecord, error)
}

type StageEngine interface {
	Present(ctx context.Context, caseID uuid.UUID) (stages.ViewModel, error)
	Commit(ctx context.Context, caseID uuid.UUID, actor string, in stages.Input) (*cases.CaseRecord, error)
	RecordEngagementOutcome(ctx context.Context, caseID uuid.UUID, actor string, in stages.EngagementOutcomeInput) (*cases.CaseRecord, error)
}

type AttemptService interface {
	Create(ctx context.Context, actor string, caseID, professionalID uuid.UUID, notes string) (*attempts.Attempt, error)
	Advance(ctx context.Context, id uuid.UUID, actor string) (*attempts.Attempt, error)
	SetStatus(ctx context.Context, id uuid.UUID, to attempts.Label, actor string) (*attempts.Attempt, error)
	List(ctx context.Context, f attempts.Filter) ([]attempts.Attempt, error)
}

type ProfessionalService interface {
	Create(ctx context.Context, actor string, req professional.CreateRequest) (professional.CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*professional.Professional, error)
	UsernameAvailable(ctx context.Context, raw string) (bool, error)
}

type AvailabilityStore interface {
	ListAll(ctx context.Context, f availability.Filter) ([]availability.ProfessionalWindows, error)
	Replace(ctx context.Context, professionalID uuid.UUID, windows []availability.Window) error
}

type BoardSource interface {
	Current(ctx context.Context) (kanban.Board, error)
}

type RouterConfig struct {
	Bookings      BookingService
	Cases         CaseService
	Stages        StageEngine
	Attempts      AttemptService
	Professionals ProfessionalService
	Availability  AvailabilityStore
	Board         BoardSource
	// Metrics is mounted at /metrics when set.
	Metrics      http.Handler
	PostgresPing PingFunc
	RedisPing    PingFunc
	JWTSecret    string
	Logger       *logging.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handlers{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	health := NewHealthHandler(cfg.PostgresPing, cfg.RedisPing, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	// Self-service, no token.
	r.Route("/public", func(r chi.Router) {
		r.Get("/slots", h.availableSlots)
		r.Post("/slots/match", h.matchPublic)
		r.Post("/cases/lookup", h.lookupCase)
		r.Post("/bookings", h.bookSlot)
	})

	r.Group(func(r chi.Router) {
		r.Use(StaffJWT(cfg.JWTSecret))

		r.Delete("/bookings/{id}", h.cancelBooking)

		r.Post("/cases", h.createCase)
		r.Route("/cases/{id}", func(r chi.Router) {
			r.Get("/", h.getCase)
			r.Get("/stage", h.presentStage)
			r.Post("/stage", h.commitStage)
			r.Get("/matches", h.manualMatches)
			r.Post("/engagements/{engagementId}/outcome", h.engagementOutcome)
		})

		r.Get("/attempts", h.listAttempts)
		r.Post("/attempts", h.createAttempt)
		r.Post("/attempts/{id}/advance", h.advanceAttempt)
		r.Put("/attempts/{id}/status", h.setAttemptStatus)

		r.Get("/kanban", h.board)
		r.Put("/professionals/{id}/availability", h.replaceAvailability)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(professional.RoleAdmin, professional.RoleCoordinator))
			r.Post("/professionals", h.createProfessional)
			r.Get("/professionals/username-available", h.usernameAvailable)
			r.Get("/availability", h.allAvailability)
		})
	})

	return r
}

type handlers struct {
	cfg    RouterConfig
	logger *logging.Logger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}

// uuidParam writes a 400 and returns false when the URL parameter is not a UUID.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
