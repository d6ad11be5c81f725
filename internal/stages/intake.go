package stages

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

// IntakeInput is the inscricao_documentos checklist. Exactly one of ExemptFromTriage,
// DroppedOut and ProceedToTriage must be set.
type IntakeInput struct {
	DocumentsReceived    bool       `json:"documentsReceived"`
	ExemptFromTriage     bool       `json:"exemptFromTriage"`
	DroppedOut           bool       `json:"droppedOut"`
	DropoutReason        string     `json:"dropoutReason"`
	ProceedToTriage      bool       `json:"proceedToTriage"`
	TriageDate           string     `json:"triageDate"`
	TriageTime           string     `json:"triageTime"`
	TriageProfessionalID *uuid.UUID `json:"triageProfessionalId"`
	TriageModality       string     `json:"triageModality"`
}

type intakeHandler struct{}

func (intakeHandler) Status() cases.Status { return cases.StatusInscricaoDocumentos }

func (intakeHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["intake"] = rec.Intake
	vm.Fields["triage"] = rec.Triage
	vm.Fields["source"] = rec.Source
	return vm
}

func (intakeHandler) Commit(rec cases.CaseRecord, in Input) (Result, error) {
	form := in.Intake
	if form == nil {
		return Result{}, cases.Invalid("intake", "required")
	}

	chosen := 0
	for _, b := range []bool{form.ExemptFromTriage, form.DroppedOut, form.ProceedToTriage} {
		if b {
			chosen++
		}
	}
	if chosen != 1 {
		return Result{}, cases.Invalid("intake.choice", "choose exactly one of exemptFromTriage, droppedOut, proceedToTriage")
	}

	checklist := &cases.IntakeChecklist{
		DocumentsReceived: form.DocumentsReceived,
		ExemptFromTriage:  form.ExemptFromTriage,
		DroppedOut:        form.DroppedOut,
		ProceedToTriage:   form.ProceedToTriage,
		CompletedAt:       in.Meta.At,
	}

	// Dropout short-circuits: triage fields are ignored even when sent.
	if form.DroppedOut {
		reason := strings.TrimSpace(form.DropoutReason)
		if reason == "" {
			return Result{}, cases.Invalid("intake.dropoutReason", "required when droppedOut")
		}
		return Result{
			Patch: cases.Patch{
				Intake:  checklist,
				Closure: closure(cases.StatusDesistencia, reason, in.Meta.At),
			},
			Next: advance(cases.StatusDesistencia),
		}, nil
	}

	if !form.DocumentsReceived {
		return Result{}, cases.Invalid("intake.documentsReceived", "documents must be received first")
	}

	if form.ExemptFromTriage {
		return Result{
			Patch: cases.Patch{
				Intake: checklist,
				Triage: &cases.TriageInfo{Exempt: true},
			},
			Next: advance(cases.StatusTriagemAgendada),
		}, nil
	}

	triage, err := triageAppointment(form)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Patch: cases.Patch{Intake: checklist, Triage: triage},
		Next:  advance(cases.StatusTriagemAgendada),
	}, nil
}

func triageAppointment(form *IntakeInput) (*cases.TriageInfo, error) {
	if err := validDate("intake.triageDate", form.TriageDate); err != nil {
		return nil, err
	}
	if err := validClock("intake.triageTime", form.TriageTime); err != nil {
		return nil, err
	}
	if form.TriageProfessionalID == nil || *form.TriageProfessionalID == uuid.Nil {
		return nil, cases.Invalid("intake.triageProfessionalId", "required")
	}
	t := &cases.TriageInfo{
		Date:           form.TriageDate,
		Time:           form.TriageTime,
		ProfessionalID: form.TriageProfessionalID,
	}
	if form.TriageModality != "" {
		m, ok := availability.ParseModality(form.TriageModality)
		if !ok {
			return nil, cases.Invalid("intake.triageModality", "must be online, presencial or ambos")
		}
		t.Modality = string(m)
	}
	return t, nil
}

func validDate(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return cases.Invalid(field, "required")
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return cases.Invalid(field, "expected YYYY-MM-DD")
	}
	return nil
}

func validClock(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return cases.Invalid(field, "required")
	}
	if _, err := availability.ParseClock(raw); err != nil {
		return cases.Invalid(field, "expected HH:MM")
	}
	return nil
}
