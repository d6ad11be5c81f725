package attempts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAttemptNotFound = errors.New("scheduling attempt not found")
	ErrAlreadyBooked   = errors.New("scheduling attempt already reached Agendado")
	ErrStaleAttempt    = errors.New("scheduling attempt changed concurrently, reload and retry")
)

// Label is an outreach step. Steps are operator-driven; nothing advances on its own.
type Label string

const (
	LabelAwaitingContact Label = "Aguardando contato"
	LabelContact1        Label = "Tentativa de contato 1"
	LabelContact2        Label = "Tentativa de contato 2"
	LabelContact3        Label = "Tentativa de contato 3"
	LabelScheduled       Label = "Agendado"
)

// Labels is the fixed progression order.
var Labels = []Label{LabelAwaitingContact, LabelContact1, LabelContact2, LabelContact3, LabelScheduled}

func (l Label) Valid() bool {
	return l.index() >= 0
}

func (l Label) index() int {
	for i, x := range Labels {
		if x == l {
			return i
		}
	}
	return -1
}

// Next returns the following label, false once the attempt is Agendado.
func (l Label) Next() (Label, bool) {
	i := l.index()
	if i < 0 || i == len(Labels)-1 {
		return "", false
	}
	return Labels[i+1], true
}

// Attempt tracks manual outreach for a case/professional pairing. Display names are
// captured at creation and not kept in sync afterwards.
type Attempt struct {
	ID               uuid.UUID `json:"id"`
	CaseID           uuid.UUID `json:"caseId"`
	ProfessionalID   uuid.UUID `json:"professionalId"`
	PatientName      string    `json:"patientName"`
	ProfessionalName string    `json:"professionalName"`
	Status           Label     `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	CreatedBy        string    `json:"createdBy"`
	UpdatedBy        string    `json:"updatedBy"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Filter struct {
	CaseID         *uuid.UUID
	ProfessionalID *uuid.UUID
	Statuses       []Label
}
