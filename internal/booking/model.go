package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSlotAlreadyBooked = errors.New("slot already has an active booking")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrSlotUnavailable   = errors.New("slot is not offered")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Booking is a reserved (professional, date, time) position. At most one active booking
// exists per key; the database enforces it with a partial unique index.
type Booking struct {
	ID             uuid.UUID  `json:"id"`
	CaseID         uuid.UUID  `json:"caseId"`
	ProfessionalID uuid.UUID  `json:"professionalId"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Modality       string     `json:"modality"`
	Status         Status     `json:"status"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
}

func (b Booking) Key() slots.BookingKey {
	return slots.BookingKey{ProfessionalID: b.ProfessionalID, Date: b.Date, Time: b.Time}
}

// SlotRef is what a self-service client sends back from the slot list.
type SlotRef struct {
	ProfessionalID uuid.UUID `json:"professionalId"`
	Date           string    `json:"date"`
	Time           string    `json:"startTime"`
}

func (r SlotRef) Key() slots.BookingKey {
	return slots.BookingKey{ProfessionalID: r.ProfessionalID, Date: r.Date, Time: r.Time}
}

type BookRequest struct {
	TaxID          string
	Name           string
	Phone          string
	Slot           SlotRef
	ExistingCaseID *uuid.UUID
}

type BookResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	BookingID uuid.UUID `json:"bookingId"`
	CaseID    uuid.UUID `json:"caseId"`
}

type LookupResult struct {
	Exists         bool           `json:"exists"`
	CaseID         *uuid.UUID     `json:"caseId,omitempty"`
	PatientSummary *cases.Summary `json:"patientSummary,omitempty"`
}

// Reservation is everything BookSlot writes in one transaction: either a new case or a
// patch to an existing one, plus the booking row.
type Reservation struct {
	Booking   Booking
	NewCase   *cases.CaseRecord
	CaseID    uuid.UUID
	CasePatch *cases.Patch
	Actor     string
	At        time.Time
}
