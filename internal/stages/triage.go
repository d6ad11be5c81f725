package stages

import (
	"strings"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/matching"
)

const (
	OutcomeOnCall  = "plantao"
	OutcomePB      = "pb"
	OutcomeDropout = "desistencia"
	OutcomeAlta    = "alta"
)

// TriageOutcomeInput records what happened at triage. A pb outcome needs the patient's
// declared demand so later matching has something to work with.
type TriageOutcomeInput struct {
	Outcome string        `json:"outcome"`
	Notes   string        `json:"notes"`
	Reason  string        `json:"reason"`
	Demand  *cases.Demand `json:"demand"`
}

type triageHandler struct{}

func (triageHandler) Status() cases.Status { return cases.StatusTriagemAgendada }

func (triageHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["triage"] = rec.Triage
	vm.Fields["demand"] = rec.Demand
	return vm
}

func (triageHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.TriageOutcome
	if form == nil {
		return Result{}, cases.Invalid("triageOutcome", "required")
	}

	triage := cases.TriageInfo{}
	if rec.Triage != nil {
		triage = *rec.Triage
	}
	at := in.Meta.At
	triage.Outcome = form.Outcome
	triage.Notes = strings.TrimSpace(form.Notes)
	triage.PerformedAt = &at

	switch form.Outcome {
	case OutcomeOnCall:
		return Result{
			Patch: cases.Patch{Triage: &triage},
			Next:  advance(cases.StatusEncaminharParaPlantao),
		}, nil
	case OutcomePB:
		demand, err := validDemand("triageOutcome.demand", form.Demand, rec.Demand)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Patch: cases.Patch{Triage: &triage, Demand: demand},
			Next:  advance(cases.StatusEncaminharParaPB),
		}, nil
	case OutcomeDropout:
		reason := strings.TrimSpace(form.Reason)
		if reason == "" {
			return Result{}, cases.Invalid("triageOutcome.reason", "required for desistencia")
		}
		return Result{
			Patch: cases.Patch{Triage: &triage, Closure: closure(cases.StatusDesistencia, reason, at)},
			Next:  advance(cases.StatusDesistencia),
		}, nil
	default:
		return Result{}, cases.Invalid("triageOutcome.outcome", "must be plantao, pb or desistencia")
	}
}

// validDemand prefers the submitted demand and falls back to what the case already has.
func validDemand(field string, submitted, current *cases.Demand) (*cases.Demand, error) {
	d := submitted
	if d == nil {
		d = current
	}
	if d == nil {
		return nil, cases.Invalid(field, "required")
	}
	m, ok := availability.ParseModality(d.Modality)
	if !ok {
		return nil, cases.Invalid(field+".modality", "must be online, presencial or ambos")
	}
	if len(d.Buckets) == 0 {
		return nil, cases.Invalid(field+".buckets", "at least one availability bucket")
	}
	if _, err := matching.ParseBuckets(d.Buckets); err != nil {
		return nil, cases.Invalid(field+".buckets", err.Error())
	}
	return &cases.Demand{Modality: string(m), Buckets: append([]string(nil), d.Buckets...)}, nil
}
