package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
)

// ValidationError names the input field that broke a rule. Nothing is persisted when
// it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Notifier is told after every committed case write.
type Notifier interface {
	CaseChanged(ctx context.Context, caseID string) error
}

type IntakeRequest struct {
	Patient  Identity
	Guardian *Guardian
	Demand   *Demand
	Source   string
}

type EventRecorder interface {
	Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any)
}

// Store is the Case Record Store: repository access plus change notification.
type Store struct {
	repo     Repository
	notifier Notifier
	events   EventRecorder
	logger   *logging.Logger
	now      func() time.Time
}

func NewStore(repo Repository, notifier Notifier, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// WithEvents makes CreateIntake write a CASE_CREATED audit event.
func (s *Store) WithEvents(events EventRecorder) *Store {
	s.events = events
	return s
}

// CreateIntake stores a new case. It is the only place a status is assigned
// automatically: every case starts at inscricao_documentos.
func (s *Store) CreateIntake(ctx context.Context, actor string, req IntakeRequest) (*CaseRecord, error) {
	if err := ValidateIdentity(req.Patient); err != nil {
		return nil, err
	}
	if req.Guardian != nil && strings.TrimSpace(req.Guardian.FullName) == "" {
		return nil, Invalid("guardian.fullName", "required when a guardian is given")
	}

	now := s.now()
	rec := CaseRecord{
		ID:            uuid.New(),
		Patient:       req.Patient,
		Guardian:      req.Guardian,
		Status:        StatusInscricaoDocumentos,
		Demand:        req.Demand,
		Source:        req.Source,
		CreatedAt:     now,
		LastUpdate:    now,
		LastUpdatedBy: actor,
	}
	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	s.notify(ctx, created.ID)
	if s.events != nil {
		s.events.Record(ctx, created.ID, actor, audit.EventCaseCreated, map[string]any{
			"source": created.Source,
		})
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*CaseRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load case: %w", err)
	}
	return rec, nil
}

func (s *Store) FindByTaxID(ctx context.Context, taxID string) (*CaseRecord, error) {
	if NormalizeTaxID(taxID) == "" {
		return nil, Invalid("taxId", "required")
	}
	rec, err := s.repo.FindByTaxID(ctx, taxID)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find case by tax id: %w", err)
	}
	return rec, nil
}

// Apply persists a field-scoped patch and notifies subscribers.
func (s *Store) Apply(ctx context.Context, id uuid.UUID, p Patch, actor string) (*CaseRecord, error) {
	updated, err := s.repo.ApplyPatch(ctx, id, p, actor, s.now())
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) || errors.Is(err, ErrStaleCase) {
			return nil, err
		}
		return nil, fmt.Errorf("apply case patch: %w", err)
	}
	s.notify(ctx, id)
	return updated, nil
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]CaseRecord, error) {
	recs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return recs, nil
}

// Notify announces a change made outside Apply, e.g. inside a booking transaction.
func (s *Store) Notify(ctx context.Context, id uuid.UUID) {
	s.notify(ctx, id)
}

func (s *Store) notify(ctx context.Context, id uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CaseChanged(ctx, id.String()); err != nil {
		s.logger.Warn("case change notification failed", "case_id", id.String(), "error", err.Error())
	}
}

// ValidateIdentity checks the fields every case needs.
func ValidateIdentity(p Identity) error {
	if strings.TrimSpace(p.FullName) == "" {
		return Invalid("fullName", "required")
	}
	tax := NormalizeTaxID(p.TaxID)
	if len(tax) != 11 {
		return Invalid("taxId", "must have 11 digits")
	}
	if p.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", p.BirthDate); err != nil {
			return Invalid("birthDate", "expected YYYY-MM-DD")
		}
	}
	return nil
}
