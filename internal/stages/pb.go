package stages

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

// PBRoutingInput opens one engagement per professional, or records a dropout.
type PBRoutingInput struct {
	ProfessionalIDs []uuid.UUID    `json:"professionalIds"`
	Contract        *ContractInput `json:"contract"`
	DroppedOut      bool           `json:"droppedOut"`
	Reason          string         `json:"reason"`
}

type ContractInput struct {
	SignedBy string `json:"signedBy"`
	Version  string `json:"version"`
}

// SessionScheduleInput is one professional's committed weekly time for an engagement.
type SessionScheduleInput struct {
	EngagementID string           `json:"engagementId"`
	Weekday      int              `json:"weekday"`
	Time         string           `json:"time"`
	Modality     string           `json:"modality"`
	Recurrence   cases.Recurrence `json:"recurrence"`
	Room         string           `json:"room"`
	StartDate    string           `json:"startDate"`
}

type ExternalRegistrationInput struct {
	EngagementID string `json:"engagementId"`
}

// EngagementOutcomeInput closes one engagement with discharge, dropout or referral.
type EngagementOutcomeInput struct {
	EngagementID string                      `json:"engagementId"`
	Kind         cases.EngagementOutcomeKind `json:"outcome"`
	Reason       string                      `json:"reason"`
	Referral     *cases.Referral             `json:"referral"`
}

type pbRoutingHandler struct{}

func (pbRoutingHandler) Status() cases.Status { return cases.StatusEncaminharParaPB }

func (pbRoutingHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["demand"] = rec.Demand
	vm.Fields["contract"] = rec.Contract
	vm.Fields["engagements"] = rec.Engagements
	return vm
}

func (pbRoutingHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.PBRouting
	if form == nil {
		return Result{}, cases.Invalid("pbRouting", "required")
	}
	if form.DroppedOut {
		reason := strings.TrimSpace(form.Reason)
		if reason == "" {
			return Result{}, cases.Invalid("pbRouting.reason", "required when droppedOut")
		}
		return Result{
			Patch: cases.Patch{Closure: closure(cases.StatusDesistencia, reason, in.Meta.At)},
			Next:  advance(cases.StatusDesistencia),
		}, nil
	}
	if len(form.ProfessionalIDs) == 0 {
		return Result{}, cases.Invalid("pbRouting.professionalIds", "at least one professional")
	}

	engagements := rec.Engagements
	seen := map[uuid.UUID]bool{}
	for _, pid := range form.ProfessionalIDs {
		if pid == uuid.Nil {
			return Result{}, cases.Invalid("pbRouting.professionalIds", "empty professional id")
		}
		if seen[pid] {
			return Result{}, cases.Invalid("pbRouting.professionalIds", "duplicate professional "+pid.String())
		}
		seen[pid] = true
		if _, ok := engagements.ActiveFor(pid); ok {
			return Result{}, cases.Invalid("pbRouting.professionalIds", "professional "+pid.String()+" already has an active engagement")
		}
		engagements = engagements.Add(cases.Engagement{
			ID:             uuid.NewString(),
			ProfessionalID: pid,
			Status:         cases.EngagementActive,
			CreatedAt:      in.Meta.At,
		})
	}

	patch := cases.Patch{Engagements: engagements}
	if form.Contract != nil {
		signedBy := strings.TrimSpace(form.Contract.SignedBy)
		if signedBy == "" {
			signedBy = in.Meta.Actor
		}
		patch.Contract = &cases.ContractSignature{
			SignedAt: in.Meta.At,
			SignedBy: signedBy,
			Version:  form.Contract.Version,
		}
	}
	return Result{Patch: patch, Next: advance(cases.StatusAguardandoInfoHorarios)}, nil
}

type sessionScheduleHandler struct{}

func (sessionScheduleHandler) Status() cases.Status { return cases.StatusAguardandoInfoHorarios }

func (sessionScheduleHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["engagements"] = rec.Engagements.Active()
	vm.Fields["demand"] = rec.Demand
	vm.Pending = pending(rec.Engagements, cases.HasSession)
	return vm
}

func (sessionScheduleHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.SessionSchedule
	if form == nil {
		return Result{}, cases.Invalid("sessionSchedule", "required")
	}
	if _, err := activeEngagement(rec, "sessionSchedule.engagementId", form.EngagementID); err != nil {
		return Result{}, err
	}
	if form.Weekday < int(time.Sunday) || form.Weekday > int(time.Saturday) {
		return Result{}, cases.Invalid("sessionSchedule.weekday", "must be 0 (Sunday) to 6 (Saturday)")
	}
	if err := validClock("sessionSchedule.time", form.Time); err != nil {
		return Result{}, err
	}
	modality, ok := availability.ParseModality(form.Modality)
	if !ok || modality == availability.ModalityBoth {
		return Result{}, cases.Invalid("sessionSchedule.modality", "must be online or presencial")
	}
	recurrence := form.Recurrence
	switch recurrence {
	case "":
		recurrence = cases.RecurrenceWeekly
	case cases.RecurrenceWeekly, cases.RecurrenceBiweekly, cases.RecurrenceMonthly:
	default:
		return Result{}, cases.Invalid("sessionSchedule.recurrence", "must be semanal, quinzenal or mensal")
	}
	if form.StartDate != "" {
		if err := validDate("sessionSchedule.startDate", form.StartDate); err != nil {
			return Result{}, err
		}
	}

	session := &cases.ScheduledSession{
		Weekday:    time.Weekday(form.Weekday),
		Time:       form.Time,
		Modality:   string(modality),
		Recurrence: recurrence,
		Room:       strings.TrimSpace(form.Room),
		StartDate:  form.StartDate,
	}
	updated, err := rec.Engagements.With(form.EngagementID, func(e cases.Engagement) cases.Engagement {
		e.ScheduledSession = session
		return e
	})
	if err != nil {
		return Result{}, cases.Invalid("sessionSchedule.engagementId", err.Error())
	}

	res := Result{Patch: cases.Patch{Engagements: updated}}
	if updated.AllActive(cases.HasSession) {
		res.Next = advance(cases.StatusCadastrarHorarioPsicomanager)
	}
	return res, nil
}

type externalRegistrationHandler struct{}

func (externalRegistrationHandler) Status() cases.Status {
	return cases.StatusCadastrarHorarioPsicomanager
}

func (externalRegistrationHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["engagements"] = rec.Engagements.Active()
	vm.Pending = pending(rec.Engagements, cases.IsRegistered)
	return vm
}

func (externalRegistrationHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.ExternalRegistration
	if form == nil {
		return Result{}, cases.Invalid("externalRegistration", "required")
	}
	e, err := activeEngagement(rec, "externalRegistration.engagementId", form.EngagementID)
	if err != nil {
		return Result{}, err
	}
	if e.ScheduledSession == nil {
		return Result{}, cases.Invalid("externalRegistration.engagementId", "engagement has no scheduled session")
	}

	at := in.Meta.At
	updated, err := rec.Engagements.With(form.EngagementID, func(e cases.Engagement) cases.Engagement {
		e.RegisteredExternally = true
		e.RegisteredAt = &at
		return e
	})
	if err != nil {
		return Result{}, cases.Invalid("externalRegistration.engagementId", err.Error())
	}

	res := Result{Patch: cases.Patch{Engagements: updated}}
	if updated.AllActive(cases.IsRegistered) {
		res.Next = advance(cases.StatusEmAtendimentoPB)
	}
	return res, nil
}

type pbTreatmentHandler struct{}

func (pbTreatmentHandler) Status() cases.Status { return cases.StatusEmAtendimentoPB }

func (pbTreatmentHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["engagements"] = rec.Engagements
	vm.Fields["contract"] = rec.Contract
	return vm
}

// Commit closes one engagement. The case leaves em_atendimento_pb only when the last
// active engagement closes; the outcome of that last one picks the next status.
func (pbTreatmentHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.EngagementOutcome
	if form == nil {
		return Result{}, cases.Invalid("engagementOutcome", "required")
	}
	if _, err := activeEngagement(rec, "engagementOutcome.engagementId", form.EngagementID); err != nil {
		return Result{}, err
	}
	reason := strings.TrimSpace(form.Reason)
	if reason == "" {
		return Result{}, cases.Invalid("engagementOutcome.reason", "required")
	}

	var next cases.Status
	switch form.Kind {
	case cases.OutcomeDischarge:
		next = cases.StatusAlta
	case cases.OutcomeDropout:
		next = cases.StatusDesistencia
	case cases.OutcomeReferral:
		if form.Referral == nil || strings.TrimSpace(form.Referral.Destination) == "" {
			return Result{}, cases.Invalid("engagementOutcome.referral.destination", "required for encaminhamento")
		}
		next = cases.StatusEncaminharParaPB
	default:
		return Result{}, cases.Invalid("engagementOutcome.outcome", "must be alta, desistencia or encaminhamento")
	}

	outcome := &cases.EngagementOutcome{
		Kind:       form.Kind,
		Reason:     reason,
		Referral:   form.Referral,
		RecordedAt: in.Meta.At,
		RecordedBy: in.Meta.Actor,
	}
	updated, err := rec.Engagements.With(form.EngagementID, func(e cases.Engagement) cases.Engagement {
		e.Status = cases.EngagementClosed
		e.Outcome = outcome
		return e
	})
	if err != nil {
		return Result{}, cases.Invalid("engagementOutcome.engagementId", err.Error())
	}

	res := Result{Patch: cases.Patch{Engagements: updated}}
	if len(updated.Active()) > 0 {
		return res, nil
	}
	if next.Terminal() {
		res.Patch.Closure = closure(next, reason, in.Meta.At)
	}
	res.Next = advance(next)
	return res, nil
}

func activeEngagement(rec cases.CaseRecord, field, id string) (cases.Engagement, error) {
	if strings.TrimSpace(id) == "" {
		return cases.Engagement{}, cases.Invalid(field, "required")
	}
	e, ok := rec.Engagements.Find(id)
	if !ok {
		return cases.Engagement{}, cases.Invalid(field, "unknown engagement "+id)
	}
	if !e.Active() {
		return cases.Engagement{}, cases.Invalid(field, "engagement "+id+" is closed")
	}
	return e, nil
}

func pending(es cases.Engagements, done func(cases.Engagement) bool) []string {
	var out []string
	for _, e := range es.Active() {
		if !done(e) {
			out = append(out, e.ID)
		}
	}
	return out
}
