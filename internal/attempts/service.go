package attempts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
)

type CaseReader interface {
	Get(ctx context.Context, id uuid.UUID) (*cases.CaseRecord, error)
}

type ProfessionalReader interface {
	Get(ctx context.Context, id uuid.UUID) (*professional.Professional, error)
}

type EventRecorder interface {
	Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any)
}

// Service is the Scheduling Attempt Tracker. It never touches case status.
type Service struct {
	repo          Repository
	cases         CaseReader
	professionals ProfessionalReader
	events        EventRecorder
	logger        *logging.Logger
}

func NewService(repo Repository, cr CaseReader, pr ProfessionalReader, events EventRecorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, cases: cr, professionals: pr, events: events, logger: logger}
}

// Create starts outreach at "Aguardando contato" and snapshots both display names.
func (s *Service) Create(ctx context.Context, actor string, caseID, professionalID uuid.UUID, notes string) (*Attempt, error) {
	rec, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, cases.Invalid("caseId", "case is closed")
	}
	prof, err := s.professionals.Get(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Attempt{
		ID:               uuid.New(),
		CaseID:           caseID,
		ProfessionalID:   professionalID,
		PatientName:      rec.Patient.FullName,
		ProfessionalName: prof.FullName,
		Status:           LabelAwaitingContact,
		Notes:            strings.TrimSpace(notes),
		CreatedBy:        actor,
	})
	if err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	s.record(ctx, created, actor, audit.EventAttemptCreated)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return a, nil
}

// Advance moves to the next label in order.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, actor string) (*Attempt, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, ok := a.Status.Next()
	if !ok {
		return nil, ErrAlreadyBooked
	}
	return s.move(ctx, a, next, actor)
}

// SetStatus jumps to any label, e.g. straight to Agendado after a first-call success.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, to Label, actor string) (*Attempt, error) {
	if !to.Valid() {
		return nil, cases.Invalid("status", fmt.Sprintf("unknown label %q", to))
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == to {
		return a, nil
	}
	return s.move(ctx, a, to, actor)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Attempt, error) {
	for _, l := range f.Statuses {
		if !l.Valid() {
			return nil, cases.Invalid("status", fmt.Sprintf("unknown label %q", l))
		}
	}
	return s.repo.List(ctx, f)
}

func (s *Service) move(ctx context.Context, a *Attempt, to Label, actor string) (*Attempt, error) {
	updated, err := s.repo.UpdateStatus(ctx, a.ID, a.Status, to, actor)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil, ErrStaleAttempt
		}
		return nil, fmt.Errorf("update attempt status: %w", err)
	}
	s.record(ctx, updated, actor, audit.EventAttemptAdvanced)
	return updated, nil
}

func (s *Service) record(ctx context.Context, a *Attempt, actor, eventType string) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, a.CaseID, actor, eventType, map[string]any{
		"attempt_id":      a.ID.String(),
		"professional_id": a.ProfessionalID.String(),
		"status":          string(a.Status),
	})
}
