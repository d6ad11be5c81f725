package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/booking"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

type MatchRequest struct {
	Modality string   `json:"modality" validate:"required"`
	Buckets  []string `json:"buckets" validate:"required,min=1"`
}

type LookupRequest struct {
	TaxID string `json:"taxId" validate:"required"`
}

type SlotRefRequest struct {
	ProfessionalID uuid.UUID `json:"professionalId" validate:"required"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string    `json:"startTime" validate:"required,datetime=15:04"`
}

type BookSlotRequest struct {
	TaxID          string         `json:"taxId" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	Phone          string         `json:"phone"`
	Slot           SlotRefRequest `json:"slot"`
	ExistingCaseID *uuid.UUID     `json:"existingCaseId"`
}

func (r BookSlotRequest) toDomain() booking.BookRequest {
	return booking.BookRequest{
		TaxID: r.TaxID,
		Name:  r.Name,
		Phone: r.Phone,
		Slot: booking.SlotRef{
			ProfessionalID: r.Slot.ProfessionalID,
			Date:           r.Slot.Date,
			Time:           r.Slot.StartTime,
		},
		ExistingCaseID: r.ExistingCaseID,
	}
}

type IdentityRequest struct {
	FullName  string `json:"fullName" validate:"required"`
	BirthDate string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	TaxID     string `json:"taxId" validate:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
}

type CreateCaseRequest struct {
	Patient  IdentityRequest `json:"patient"`
	Guardian *cases.Guardian `json:"guardian"`
	Demand   *cases.Demand   `json:"demand"`
	Source   string          `json:"source"`
}

func (r CreateCaseRequest) toDomain() cases.IntakeRequest {
	return cases.IntakeRequest{
		Patient: cases.Identity{
			FullName:  r.Patient.FullName,
			BirthDate: r.Patient.BirthDate,
			TaxID:     r.Patient.TaxID,
			Phone:     r.Patient.Phone,
			Email:     r.Patient.Email,
		},
		Guardian: r.Guardian,
		Demand:   r.Demand,
		Source:   r.Source,
	}
}

type CreateAttemptRequest struct {
	CaseID         uuid.UUID `json:"caseId" validate:"required"`
	ProfessionalID uuid.UUID `json:"professionalId" validate:"required"`
	Notes          string    `json:"notes"`
}

type SetAttemptStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type WindowRequest struct {
	Weekdays  []int  `json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Modality  string `json:"modality" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=available unavailable"`
}

type ReplaceAvailabilityRequest struct {
	Windows []WindowRequest `json:"windows" validate:"dive"`
}

func (r ReplaceAvailabilityRequest) toDomain(professionalID uuid.UUID) []availability.Window {
	out := make([]availability.Window, 0, len(r.Windows))
	for _, w := range r.Windows {
		days := make([]time.Weekday, 0, len(w.Weekdays))
		for _, d := range w.Weekdays {
			days = append(days, time.Weekday(d))
		}
		mod := availability.Modality(w.Modality)
		if parsed, ok := availability.ParseModality(w.Modality); ok {
			mod = parsed
		}
		out = append(out, availability.Window{
			ID:             uuid.New(),
			ProfessionalID: professionalID,
			Weekdays:       days,
			StartTime:      w.StartTime,
			EndTime:        w.EndTime,
			Modality:       mod,
			Status:         availability.Status(w.Status),
		})
	}
	return out
}

type CreateProfessionalRequest struct {
	Username             string `json:"username"`
	FullName             string `json:"fullName" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Role                 string `json:"role" validate:"required,oneof=psicologo estagiario coordinator admin"`
	Color                string `json:"color" validate:"omitempty,hexcolor"`
	AcceptsPublicBooking bool   `json:"acceptsPublicBooking"`
}

func (r CreateProfessionalRequest) toDomain() professional.CreateRequest {
	return professional.CreateRequest{
		Username:             r.Username,
		FullName:             r.FullName,
		Email:                r.Email,
		Role:                 professional.Role(r.Role),
		Color:                r.Color,
		AcceptsPublicBooking: r.AcceptsPublicBooking,
	}
}

type UsernameAvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type SlotsResponse struct {
	Slots []slots.Slot `json:"slots"`
}

type OutcomeResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Case    *cases.CaseRecord `json:"case"`
}

type CancelBookingResponse struct {
	Success bool             `json:"success"`
	Booking *booking.Booking `json:"booking"`
}
