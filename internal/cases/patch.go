package cases

import (
	"encoding/json"
	"fmt"
	"time"
)

// Patch is a field-scoped partial update. Nil fields are left untouched both in memory
// and in storage; a patch never replaces the whole document.
type Patch struct {
	// From is the status the patch was computed against. It guards the write and is
	// never stored itself.
	From *Status

	Status      *Status
	Patient     *Identity
	Guardian    *Guardian
	Engagements Engagements
	Intake      *IntakeChecklist
	Triage      *TriageInfo
	OnCall      *OnCallDuty
	Contract    *ContractSignature
	Demand      *Demand
	Closure     *Closure
}

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.Patient == nil && p.Guardian == nil && p.Engagements == nil &&
		p.Intake == nil && p.Triage == nil && p.OnCall == nil && p.Contract == nil &&
		p.Demand == nil && p.Closure == nil
}

// Apply returns rec with the patch's fields merged in and the audit fields stamped.
func (p Patch) Apply(rec CaseRecord, actor string, at time.Time) CaseRecord {
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Patient != nil {
		rec.Patient = *p.Patient
	}
	if p.Guardian != nil {
		rec.Guardian = p.Guardian
	}
	if p.Engagements != nil {
		rec.Engagements = p.Engagements
	}
	if p.Intake != nil {
		rec.Intake = p.Intake
	}
	if p.Triage != nil {
		rec.Triage = p.Triage
	}
	if p.OnCall != nil {
		rec.OnCall = p.OnCall
	}
	if p.Contract != nil {
		rec.Contract = p.Contract
	}
	if p.Demand != nil {
		rec.Demand = p.Demand
	}
	if p.Closure != nil {
		rec.Closure = p.Closure
	}
	rec.LastUpdate = at
	rec.LastUpdatedBy = actor
	return rec
}

// payloadJSON renders only the payload keys this patch sets, for a JSONB || merge.
func (p Patch) payloadJSON() ([]byte, error) {
	doc := payload{
		Guardian:    p.Guardian,
		Engagements: p.Engagements,
		Intake:      p.Intake,
		Triage:      p.Triage,
		OnCall:      p.OnCall,
		Contract:    p.Contract,
		Demand:      p.Demand,
		Closure:     p.Closure,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal patch payload: %w", err)
	}
	return data, nil
}

func StatusPtr(s Status) *Status { return &s }
