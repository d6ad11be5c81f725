package cases

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEngagementNotFound = errors.New("engagement not found")

type EngagementStatus string

const (
	EngagementActive EngagementStatus = "active"
	EngagementClosed EngagementStatus = "closed"
)

type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "semanal"
	RecurrenceBiweekly Recurrence = "quinzenal"
	RecurrenceMonthly  Recurrence = "mensal"
)

// ScheduledSession is the committed weekly session of an engagement.
type ScheduledSession struct {
	Weekday    time.Weekday `json:"weekday"`
	Time       string       `json:"time"`
	Modality   string       `json:"modality"`
	Recurrence Recurrence   `json:"recurrence"`
	Room       string       `json:"room,omitempty"`
	StartDate  string       `json:"startDate,omitempty"`
}

type EngagementOutcomeKind string

const (
	OutcomeDischarge EngagementOutcomeKind = "alta"
	OutcomeDropout   EngagementOutcomeKind = "desistencia"
	OutcomeReferral  EngagementOutcomeKind = "encaminhamento"
)

type Referral struct {
	Destination string `json:"destination"`
	Notes       string `json:"notes,omitempty"`
}

type EngagementOutcome struct {
	Kind       EngagementOutcomeKind `json:"kind"`
	Reason     string                `json:"reason"`
	Referral   *Referral             `json:"referral,omitempty"`
	RecordedAt time.Time             `json:"recordedAt"`
	RecordedBy string                `json:"recordedBy"`
}

// Engagement pairs a case with one professional inside the brief-therapy track.
type Engagement struct {
	ID                   string             `json:"id"`
	ProfessionalID       uuid.UUID          `json:"professionalId"`
	Status               EngagementStatus   `json:"status"`
	CreatedAt            time.Time          `json:"createdAt"`
	ScheduledSession     *ScheduledSession  `json:"scheduledSession,omitempty"`
	RegisteredExternally bool               `json:"registeredInExternalSystem"`
	RegisteredAt         *time.Time         `json:"registrationDate,omitempty"`
	Outcome              *EngagementOutcome `json:"outcome,omitempty"`
}

func (e Engagement) Active() bool { return e.Status == EngagementActive }

// Engagements is an ordered collection with copy-on-write updates. No method mutates
// the receiver's backing array.
type Engagements []Engagement

func (es Engagements) Find(id string) (Engagement, bool) {
	for _, e := range es {
		if e.ID == id {
			return e, true
		}
	}
	return Engagement{}, false
}

// Active returns the active engagements in order.
func (es Engagements) Active() Engagements {
	var out Engagements
	for _, e := range es {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out
}

// ActiveFor returns the active engagement with the professional, if any.
func (es Engagements) ActiveFor(professionalID uuid.UUID) (Engagement, bool) {
	for _, e := range es {
		if e.Active() && e.ProfessionalID == professionalID {
			return e, true
		}
	}
	return Engagement{}, false
}

// AllActive reports whether there is at least one active engagement and every one
// satisfies pred.
func (es Engagements) AllActive(pred func(Engagement) bool) bool {
	active := es.Active()
	if len(active) == 0 {
		return false
	}
	for _, e := range active {
		if !pred(e) {
			return false
		}
	}
	return true
}

// Add returns a new collection with e appended.
func (es Engagements) Add(e Engagement) Engagements {
	out := make(Engagements, len(es), len(es)+1)
	copy(out, es)
	return append(out, e)
}

// With returns a new collection where the engagement id is replaced by fn(current).
func (es Engagements) With(id string, fn func(Engagement) Engagement) (Engagements, error) {
	out := make(Engagements, len(es))
	copy(out, es)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
			return out, nil
		}
	}
	return nil, ErrEngagementNotFound
}

func HasSession(e Engagement) bool { return e.ScheduledSession != nil }

func IsRegistered(e Engagement) bool { return e.RegisteredExternally }
