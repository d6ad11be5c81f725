package stages

import (
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

// OnCallAssignmentInput either assigns the plantão professional or records a dropout
// before the first on-call session.
type OnCallAssignmentInput struct {
	ProfessionalID uuid.UUID `json:"professionalId"`
	StartDate      string    `json:"startDate"`
	DroppedOut     bool      `json:"droppedOut"`
	Reason         string    `json:"reason"`
}

// OnCallOutcomeInput closes the plantão period.
type OnCallOutcomeInput struct {
	Outcome      string        `json:"outcome"`
	SessionsHeld int           `json:"sessionsHeld"`
	Notes        string        `json:"notes"`
	Reason       string        `json:"reason"`
	Demand       *cases.Demand `json:"demand"`
}

type onCallAssignmentHandler struct{}

func (onCallAssignmentHandler) Status() cases.Status { return cases.StatusEncaminharParaPlantao }

func (onCallAssignmentHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["triage"] = rec.Triage
	vm.Fields["onCall"] = rec.OnCall
	return vm
}

func (onCallAssignmentHandler) Commit(_ cases.CaseRecord, in Input) (Result, error) {
	form := in.OnCallAssignment
	if form == nil {
		return Result{}, cases.Invalid("onCallAssignment", "required")
	}
	if form.DroppedOut {
		reason := strings.TrimSpace(form.Reason)
		if reason == "" {
			return Result{}, cases.Invalid("onCallAssignment.reason", "required when droppedOut")
		}
		return Result{
			Patch: cases.Patch{Closure: closure(cases.StatusDesistencia, reason, in.Meta.At)},
			Next:  advance(cases.StatusDesistencia),
		}, nil
	}
	if form.ProfessionalID == uuid.Nil {
		return Result{}, cases.Invalid("onCallAssignment.professionalId", "required")
	}
	if err := validDate("onCallAssignment.startDate", form.StartDate); err != nil {
		return Result{}, err
	}
	return Result{
		Patch: cases.Patch{OnCall: &cases.OnCallDuty{
			ProfessionalID: form.ProfessionalID,
			StartDate:      form.StartDate,
		}},
		Next: advance(cases.StatusEmAtendimentoPlantao),
	}, nil
}

type onCallTreatmentHandler struct{}

func (onCallTreatmentHandler) Status() cases.Status { return cases.StatusEmAtendimentoPlantao }

func (onCallTreatmentHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["onCall"] = rec.OnCall
	vm.Fields["demand"] = rec.Demand
	return vm
}

func (onCallTreatmentHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.OnCallOutcome
	if form == nil {
		return Result{}, cases.Invalid("onCallOutcome", "required")
	}
	if form.SessionsHeld < 0 {
		return Result{}, cases.Invalid("onCallOutcome.sessionsHeld", "must not be negative")
	}

	duty := cases.OnCallDuty{}
	if rec.OnCall != nil {
		duty = *rec.OnCall
	}
	at := in.Meta.At
	duty.Outcome = form.Outcome
	duty.SessionsHeld = form.SessionsHeld
	duty.Notes = strings.TrimSpace(form.Notes)
	duty.ClosedAt = &at

	switch form.Outcome {
	case OutcomePB:
		demand, err := validDemand("onCallOutcome.demand", form.Demand, rec.Demand)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Patch: cases.Patch{OnCall: &duty, Demand: demand},
			Next:  advance(cases.StatusEncaminharParaPB),
		}, nil
	case OutcomeAlta:
		return Result{
			Patch: cases.Patch{OnCall: &duty, Closure: closure(cases.StatusAlta, strings.TrimSpace(form.Reason), at)},
			Next:  advance(cases.StatusAlta),
		}, nil
	case OutcomeDropout:
		reason := strings.TrimSpace(form.Reason)
		if reason == "" {
			return Result{}, cases.Invalid("onCallOutcome.reason", "required for desistencia")
		}
		return Result{
			Patch: cases.Patch{OnCall: &duty, Closure: closure(cases.StatusDesistencia, reason, at)},
			Next:  advance(cases.StatusDesistencia),
		}, nil
	default:
		return Result{}, cases.Invalid("onCallOutcome.outcome", "must be pb, alta or desistencia")
	}
}
