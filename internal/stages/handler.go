package stages

import (
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStageMismatch     = errors.New("operation not allowed in the current stage")
	ErrUnknownStatus     = errors.New("unknown case status")
)

// ValidationError is the case-level validation error; stage handlers return it to
// name the offending input field.
type ValidationError = cases.ValidationError

// ViewModel is the read-only projection of a case for one stage.
type ViewModel struct {
	CaseID       string         `json:"caseId"`
	Status       cases.Status   `json:"status"`
	Title        string         `json:"title"`
	Terminal     bool           `json:"terminal"`
	NextStatuses []cases.Status `json:"nextStatuses"`
	Fields       map[string]any `json:"fields"`
	// Pending lists engagement ids still blocking the stage's completion predicate.
	Pending []string `json:"pending,omitempty"`
}

// Result is what a commit produces: a partial update and, for advancing stages, the
// next status. Next is nil when the case stays where it is.
type Result struct {
	Patch cases.Patch
	Next  *cases.Status
}

// Meta is filled by the engine, never decoded from a request.
type Meta struct {
	Actor string
	At    time.Time
}

// Input is the closed set of stage inputs. A handler reads only its own member.
type Input struct {
	Intake               *IntakeInput               `json:"intake,omitempty"`
	TriageOutcome        *TriageOutcomeInput        `json:"triageOutcome,omitempty"`
	OnCallAssignment     *OnCallAssignmentInput     `json:"onCallAssignment,omitempty"`
	OnCallOutcome        *OnCallOutcomeInput        `json:"onCallOutcome,omitempty"`
	PBRouting            *PBRoutingInput            `json:"pbRouting,omitempty"`
	SessionSchedule      *SessionScheduleInput      `json:"sessionSchedule,omitempty"`
	ExternalRegistration *ExternalRegistrationInput `json:"externalRegistration,omitempty"`
	EngagementOutcome    *EngagementOutcomeInput    `json:"engagementOutcome,omitempty"`

	Meta Meta `json:"-"`
}

// Handler implements one status's present/commit contract.
type Handler interface {
	Status() cases.Status
	Present(rec cases.CaseRecord) ViewModel
	Commit(rec cases.CaseRecord, in Input) (Result, error)
}

// Registry maps every status to exactly one handler.
type Registry struct {
	handlers map[cases.Status]Handler
}

// NewRegistry wires the built-in handlers and panics if any status is left unmapped.
func NewRegistry() *Registry {
	return newRegistry(
		intakeHandler{},
		triageHandler{},
		onCallAssignmentHandler{},
		onCallTreatmentHandler{},
		pbRoutingHandler{},
		sessionScheduleHandler{},
		externalRegistrationHandler{},
		pbTreatmentHandler{},
		terminalHandler{status: cases.StatusAlta},
		terminalHandler{status: cases.StatusDesistencia},
	)
}

func newRegistry(hs ...Handler) *Registry {
	r := &Registry{handlers: make(map[cases.Status]Handler, len(hs))}
	for _, h := range hs {
		if _, dup := r.handlers[h.Status()]; dup {
			panic(fmt.Sprintf("stages: duplicate handler for %s", h.Status()))
		}
		r.handlers[h.Status()] = h
	}
	for _, s := range cases.AllStatuses {
		if _, ok := r.handlers[s]; !ok {
			panic(fmt.Sprintf("stages: no handler for %s", s))
		}
	}
	return r
}

func (r *Registry) Resolve(s cases.Status) (Handler, error) {
	h, ok := r.handlers[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return h, nil
}

func baseView(rec cases.CaseRecord) ViewModel {
	return ViewModel{
		CaseID:       rec.ID.String(),
		Status:       rec.Status,
		Title:        rec.Status.Title(),
		Terminal:     rec.Status.Terminal(),
		NextStatuses: rec.Status.Next(),
		Fields: map[string]any{
			"patient":  rec.Patient,
			"guardian": rec.Guardian,
		},
	}
}

func advance(to cases.Status) *cases.Status { return &to }

func closure(status cases.Status, reason string, at time.Time) *cases.Closure {
	return &cases.Closure{Status: status, Reason: reason, ClosedAt: at}
}
