package cases

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Guardian struct {
	FullName     string `json:"fullName"`
	TaxID        string `json:"taxId"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// Identity is the patient part of a case record.
type Identity struct {
	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate,omitempty"`
	TaxID     string `json:"taxId"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// IntakeChecklist is written by the inscricao_documentos stage.
type IntakeChecklist struct {
	DocumentsReceived bool      `json:"documentsReceived"`
	ExemptFromTriage  bool      `json:"exemptFromTriage"`
	DroppedOut        bool      `json:"droppedOut"`
	ProceedToTriage   bool      `json:"proceedToTriage"`
	CompletedAt       time.Time `json:"completedAt"`
}

// TriageInfo holds triage scheduling and, once performed, its outcome.
type TriageInfo struct {
	Exempt         bool       `json:"exempt"`
	Date           string     `json:"date,omitempty"`
	Time           string     `json:"time,omitempty"`
	ProfessionalID *uuid.UUID `json:"professionalId,omitempty"`
	Modality       string     `json:"modality,omitempty"`
	Outcome        string     `json:"outcome,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	PerformedAt    *time.Time `json:"performedAt,omitempty"`
}

// OnCallDuty is the plantão (on-call duty) block.
type OnCallDuty struct {
	ProfessionalID uuid.UUID  `json:"professionalId"`
	StartDate      string     `json:"startDate"`
	SessionsHeld   int        `json:"sessionsHeld,omitempty"`
	Outcome        string     `json:"outcome,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
}

// ContractSignature records the therapy contract acceptance.
type ContractSignature struct {
	SignedAt time.Time `json:"signedAt"`
	SignedBy string    `json:"signedBy"`
	Version  string    `json:"version,omitempty"`
}

// Demand is what the matcher needs from a case: modality and availability buckets.
type Demand struct {
	Modality string   `json:"modality"`
	Buckets  []string `json:"buckets"`
}

// Closure records why a case reached a terminal status.
type Closure struct {
	Status   Status    `json:"status"`
	Reason   string    `json:"reason"`
	ClosedAt time.Time `json:"closedAt"`
}

// CaseRecord is the canonical document for one patient journey. Missing payload
// blocks mean "not yet filled".
type CaseRecord struct {
	ID            uuid.UUID          `json:"id"`
	Patient       Identity           `json:"patient"`
	Guardian      *Guardian          `json:"guardian,omitempty"`
	Status        Status             `json:"status"`
	Engagements   Engagements        `json:"engagements"`
	Intake        *IntakeChecklist   `json:"intake,omitempty"`
	Triage        *TriageInfo        `json:"triage,omitempty"`
	OnCall        *OnCallDuty        `json:"onCall,omitempty"`
	Contract      *ContractSignature `json:"contract,omitempty"`
	Demand        *Demand            `json:"demand,omitempty"`
	Closure       *Closure           `json:"closure,omitempty"`
	Source        string             `json:"source,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	LastUpdate    time.Time          `json:"lastUpdate"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// payload is the JSONB part of a case row. Field names are the merge keys.
type payload struct {
	Guardian    *Guardian          `json:"guardian,omitempty"`
	Engagements Engagements        `json:"engagements,omitempty"`
	Intake      *IntakeChecklist   `json:"intake,omitempty"`
	Triage      *TriageInfo        `json:"triage,omitempty"`
	OnCall      *OnCallDuty        `json:"onCall,omitempty"`
	Contract    *ContractSignature `json:"contract,omitempty"`
	Demand      *Demand            `json:"demand,omitempty"`
	Closure     *Closure           `json:"closure,omitempty"`
	Source      string             `json:"source,omitempty"`
}

func (c CaseRecord) payload() payload {
	return payload{
		Guardian:    c.Guardian,
		Engagements: c.Engagements,
		Intake:      c.Intake,
		Triage:      c.Triage,
		OnCall:      c.OnCall,
		Contract:    c.Contract,
		Demand:      c.Demand,
		Closure:     c.Closure,
		Source:      c.Source,
	}
}

func (c *CaseRecord) setPayload(p payload) {
	c.Guardian = p.Guardian
	c.Engagements = p.Engagements
	c.Intake = p.Intake
	c.Triage = p.Triage
	c.OnCall = p.OnCall
	c.Contract = p.Contract
	c.Demand = p.Demand
	c.Closure = p.Closure
	c.Source = p.Source
}

// NormalizeTaxID keeps only digits so "123.456.789-00" and "12345678900" compare equal.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Summary is the minimal patient view returned to the public duplicate check.
type Summary struct {
	FirstName string `json:"firstName"`
	Status    Status `json:"status"`
}

func (c CaseRecord) Summary() Summary {
	first, _, _ := strings.Cut(strings.TrimSpace(c.Patient.FullName), " ")
	return Summary{FirstName: first, Status: c.Status}
}
