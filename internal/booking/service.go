package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/matching"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

// PublicActor stamps lastUpdatedBy on writes coming from self-service booking.
const PublicActor = "public_booking"

// CaseStore is the part of cases.Store booking needs.
type CaseStore interface {
	Get(ctx context.Context, id uuid.UUID) (*cases.CaseRecord, error)
	FindByTaxID(ctx context.Context, taxID string) (*cases.CaseRecord, error)
	Notify(ctx context.Context, id uuid.UUID)
}

type EventRecorder interface {
	Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any)
}

type Options struct {
	PublicHorizonDays int
	ManualHorizonDays int
	Location          *time.Location
}

type Service struct {
	windows  availability.Repository
	repo     Repository
	cases    CaseStore
	locker   redisclient.Locker
	expander *slots.Expander
	events   EventRecorder
	metrics  *metrics.Scheduling
	logger   *logging.Logger
	opts     Options
	now      func() time.Time
}

func NewService(
	windows availability.Repository,
	repo Repository,
	cs CaseStore,
	locker redisclient.Locker,
	events EventRecorder,
	m *metrics.Scheduling,
	logger *logging.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PublicHorizonDays <= 0 {
		opts.PublicHorizonDays = 15
	}
	if opts.ManualHorizonDays <= 0 {
		opts.ManualHorizonDays = 7
	}
	return &Service{
		windows:  windows,
		repo:     repo,
		cases:    cs,
		locker:   locker,
		expander: slots.NewExpander(logger, m),
		events:   events,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.opts.Location)
}

// openSlots expands the given groups over horizon days and removes booked positions.
func (s *Service) openSlots(ctx context.Context, groups []availability.ProfessionalWindows, horizon int) ([]slots.Slot, error) {
	started := time.Now()
	today := s.today()
	candidates := s.expander.ExpandAll(groups, today, horizon)
	s.metrics.ObserveExpansion(time.Since(started).Seconds())

	from := today.AddDate(0, 0, 1).Format(slots.DateLayout)
	to := today.AddDate(0, 0, horizon).Format(slots.DateLayout)
	keys, err := s.repo.ActiveKeys(ctx, from, to)
	if err != nil {
		return nil, err
	}
	open := slots.ResolveConflicts(candidates, slots.NewBookingSet(keys...))
	slots.SortChronologically(open)
	return open, nil
}

// GetAvailableSlots lists every bookable public slot in the public horizon. An empty
// list is a valid answer.
func (s *Service) GetAvailableSlots(ctx context.Context) ([]slots.Slot, error) {
	groups, err := s.windows.ListAll(ctx, availability.Filter{PublicOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load public availability: %w", err)
	}
	open, err := s.openSlots(ctx, groups, s.opts.PublicHorizonDays)
	if err != nil {
		return nil, fmt.Errorf("resolve conflicts: %w", err)
	}
	out := make([]slots.Slot, 0, len(open))
	for _, sl := range open {
		if sl.Status == availability.StatusUnavailable {
			continue
		}
		out = append(out, sl)
	}
	return out, nil
}

// MatchPublic filters the public slot list by a patient's declared modality and buckets.
func (s *Service) MatchPublic(ctx context.Context, demand cases.Demand) ([]slots.Slot, error) {
	need, err := NeedFromDemand(demand)
	if err != nil {
		return nil, err
	}
	open, err := s.GetAvailableSlots(ctx)
	if err != nil {
		return nil, err
	}
	return matching.MatchPublic(need, open), nil
}

// ManualMatches routes a case against every active professional's windows over the
// manual horizon, grouped per professional.
func (s *Service) ManualMatches(ctx context.Context, caseID uuid.UUID) ([]matching.ProfessionalMatches, error) {
	rec, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec.Demand == nil {
		return nil, cases.Invalid("demand", "case has no declared availability")
	}
	need, err := NeedFromDemand(*rec.Demand)
	if err != nil {
		return nil, err
	}
	groups, err := s.windows.ListAll(ctx, availability.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	open, err := s.openSlots(ctx, groups, s.opts.ManualHorizonDays)
	if err != nil {
		return nil, fmt.Errorf("resolve conflicts: %w", err)
	}
	return matching.GroupByProfessional(matching.MatchManual(need, open)), nil
}

// NeedFromDemand converts a stored demand into matcher input.
func NeedFromDemand(d cases.Demand) (matching.Need, error) {
	m, ok := availability.ParseModality(d.Modality)
	if !ok {
		return matching.Need{}, cases.Invalid("demand.modality", "must be online, presencial or ambos")
	}
	buckets, err := matching.ParseBuckets(d.Buckets)
	if err != nil {
		return matching.Need{}, cases.Invalid("demand.buckets", err.Error())
	}
	return matching.Need{Modality: m, Buckets: buckets}, nil
}

func (s *Service) CheckExistingCaseByTaxID(ctx context.Context, taxID string) (LookupResult, error) {
	rec, err := s.cases.FindByTaxID(ctx, taxID)
	if err != nil {
		if errors.Is(err, cases.ErrCaseNotFound) {
			return LookupResult{Exists: false}, nil
		}
		return LookupResult{}, err
	}
	id := rec.ID
	summary := rec.Summary()
	return LookupResult{Exists: true, CaseID: &id, PatientSummary: &summary}, nil
}

// BookSlot reserves a public slot for a patient. The slot must still be a valid
// expansion; the booking key is locked in Redis while the case and the booking are
// written in one transaction guarded by the unique active-booking index.
func (s *Service) BookSlot(ctx context.Context, req BookRequest) (BookResult, error) {
	identity := cases.Identity{
		FullName: strings.TrimSpace(req.Name),
		TaxID:    req.TaxID,
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := cases.ValidateIdentity(identity); err != nil {
		return BookResult{}, err
	}
	if req.Slot.ProfessionalID == uuid.Nil {
		return BookResult{}, cases.Invalid("selectedSlot.professionalId", "required")
	}

	slot, err := s.findOffered(ctx, req.Slot)
	if err != nil {
		s.metrics.ObserveBooking("unavailable")
		return BookResult{}, err
	}

	res := Reservation{
		Booking: Booking{
			ID:             uuid.New(),
			ProfessionalID: slot.ProfessionalID,
			Date:           slot.Date,
			Time:           slot.StartTime,
			Modality:       string(slot.Modality),
			CreatedBy:      PublicActor,
		},
		Actor: PublicActor,
	}
	if err := s.attachCase(ctx, &res, req, identity, slot); err != nil {
		s.metrics.ObserveBooking("invalid")
		return BookResult{}, err
	}

	var booked *Booking
	err = s.locker.WithKeyLock(ctx, slot.Key().String(), func(lockCtx context.Context) error {
		// Re-check under the lock; the unique index still arbitrates writers that
		// bypass it.
		keys, err := s.repo.ActiveKeys(lockCtx, slot.Date, slot.Date)
		if err != nil {
			return fmt.Errorf("check existing bookings: %w", err)
		}
		if len(slots.ResolveConflicts([]slots.Slot{*slot}, slots.NewBookingSet(keys...))) == 0 {
			return ErrSlotAlreadyBooked
		}
		res.At = s.now()
		b, err := s.repo.Reserve(lockCtx, res)
		if err != nil {
			return err
		}
		booked = b
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.metrics.ObserveBooking("busy")
			return BookResult{}, ErrSlotBeingBooked
		case errors.Is(err, ErrSlotAlreadyBooked):
			s.metrics.ObserveBooking("conflict")
			return BookResult{}, err
		default:
			s.metrics.ObserveBooking("error")
			return BookResult{}, fmt.Errorf("book slot: %w", err)
		}
	}

	s.metrics.ObserveBooking("ok")
	s.cases.Notify(ctx, booked.CaseID)
	if s.events != nil {
		s.events.Record(ctx, booked.CaseID, PublicActor, audit.EventBookingCreated, map[string]any{
			"booking_id":      booked.ID.String(),
			"professional_id": booked.ProfessionalID.String(),
			"date":            booked.Date,
			"time":            booked.Time,
		})
	}
	s.logger.Info("slot booked",
		"booking_id", booked.ID.String(),
		"case_id", booked.CaseID.String(),
		"key", booked.Key().String(),
	)

	return BookResult{
		Success:   true,
		Message:   fmt.Sprintf("booked %s at %s", booked.Date, booked.Time),
		BookingID: booked.ID,
		CaseID:    booked.CaseID,
	}, nil
}

// findOffered recomputes the professional's public expansion and returns the slot the
// client referenced, if it is still offered.
func (s *Service) findOffered(ctx context.Context, ref SlotRef) (*slots.Slot, error) {
	groups, err := s.windows.ListAll(ctx, availability.Filter{PublicOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load public availability: %w", err)
	}
	for _, g := range groups {
		if g.ProfessionalID != ref.ProfessionalID {
			continue
		}
		for _, sl := range s.expander.Expand(g, s.today(), s.opts.PublicHorizonDays) {
			if sl.Key() == ref.Key() && sl.Status != availability.StatusUnavailable {
				return &sl, nil
			}
		}
	}
	return nil, ErrSlotUnavailable
}

// attachCase decides whether the booking creates a new case or joins an existing one.
// New cases enter inscricao_documentos with the booked slot as their triage appointment.
func (s *Service) attachCase(ctx context.Context, res *Reservation, req BookRequest, identity cases.Identity, slot *slots.Slot) error {
	var existing *cases.CaseRecord
	if req.ExistingCaseID != nil {
		rec, err := s.cases.Get(ctx, *req.ExistingCaseID)
		if err != nil {
			return err
		}
		if cases.NormalizeTaxID(rec.Patient.TaxID) != cases.NormalizeTaxID(req.TaxID) {
			return cases.Invalid("existingCaseId", "case belongs to another tax id")
		}
		existing = rec
	} else {
		rec, err := s.cases.FindByTaxID(ctx, req.TaxID)
		if err != nil && !errors.Is(err, cases.ErrCaseNotFound) {
			return err
		}
		existing = rec
	}

	if existing != nil {
		if existing.Status.Terminal() {
			return cases.Invalid("existingCaseId", "case is closed")
		}
		res.CaseID = existing.ID
		if identity.Phone != "" && identity.Phone != existing.Patient.Phone {
			patient := existing.Patient
			patient.Phone = identity.Phone
			res.CasePatch = &cases.Patch{Patient: &patient}
		}
		return nil
	}

	now := s.now()
	profID := slot.ProfessionalID
	res.NewCase = &cases.CaseRecord{
		ID:      uuid.New(),
		Patient: identity,
		Status:  cases.StatusInscricaoDocumentos,
		Triage: &cases.TriageInfo{
			Date:           slot.Date,
			Time:           slot.StartTime,
			ProfessionalID: &profID,
			Modality:       string(slot.Modality),
		},
		Source:        PublicActor,
		CreatedAt:     now,
		LastUpdate:    now,
		LastUpdatedBy: PublicActor,
	}
	return nil
}

// CancelBooking frees the booking key.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, actor string) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	cancelled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	s.cases.Notify(ctx, cancelled.CaseID)
	if s.events != nil {
		s.events.Record(ctx, cancelled.CaseID, actor, audit.EventBookingCancelled, map[string]any{
			"booking_id": cancelled.ID.String(),
		})
	}
	return cancelled, nil
}
