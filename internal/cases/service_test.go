package cases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases/casestest"
)

type recordedEvent struct {
	caseID    uuid.UUID
	actor     string
	eventType string
}

type eventLog struct{ events []recordedEvent }

func (l *eventLog) Record(_ context.Context, caseID uuid.UUID, actor, eventType string, _ map[string]any) {
	l.events = append(l.events, recordedEvent{caseID: caseID, actor: actor, eventType: eventType})
}

func TestCreateIntakeEntersFirstStage(t *testing.T) {
	repo := casestest.NewRepository()
	notifier := &casestest.Notifier{}
	events := &eventLog{}
	store := cases.NewStore(repo, notifier, nil).WithEvents(events)

	rec, err := store.CreateIntake(context.Background(), "intake-form", cases.IntakeRequest{
		Patient: cases.Identity{FullName: "Maria Souza", TaxID: "123.456.789-00", BirthDate: "1990-02-03"},
		Source:  "intake_form",
	})
	require.NoError(t, err)
	assert.Equal(t, cases.StatusInscricaoDocumentos, rec.Status)
	assert.Equal(t, "intake-form", rec.LastUpdatedBy)
	assert.Equal(t, 1, notifier.Count())
	require.Len(t, events.events, 1)
	assert.Equal(t, recordedEvent{caseID: rec.ID, actor: "intake-form", eventType: "CASE_CREATED"}, events.events[0])

	found, err := store.FindByTaxID(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
}

func TestCreateIntakeValidation(t *testing.T) {
	store := cases.NewStore(casestest.NewRepository(), nil, nil)

	tests := []struct {
		name  string
		req   cases.IntakeRequest
		field string
	}{
		{"missing name", cases.IntakeRequest{Patient: cases.Identity{TaxID: "12345678900"}}, "fullName"},
		{"short tax id", cases.IntakeRequest{Patient: cases.Identity{FullName: "A", TaxID: "123"}}, "taxId"},
		{"bad birth date", cases.IntakeRequest{Patient: cases.Identity{FullName: "A", TaxID: "12345678900", BirthDate: "03/02/1990"}}, "birthDate"},
		{"guardian without name", cases.IntakeRequest{Patient: cases.Identity{FullName: "A", TaxID: "12345678900"}, Guardian: &cases.Guardian{}}, "guardian.fullName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateIntake(context.Background(), "x", tt.req)
			var verr *cases.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestApplyNotifiesAndKeepsOtherFields(t *testing.T) {
	id := uuid.New()
	repo := casestest.NewRepository(cases.CaseRecord{
		ID:      id,
		Patient: cases.Identity{FullName: "Maria", TaxID: "12345678900"},
		Status:  cases.StatusTriagemAgendada,
		Demand:  &cases.Demand{Modality: "online"},
	})
	notifier := &casestest.Notifier{}
	store := cases.NewStore(repo, notifier, nil)

	rec, err := store.Apply(context.Background(), id, cases.Patch{Triage: &cases.TriageInfo{Outcome: "pb"}}, "staff-2")
	require.NoError(t, err)
	assert.Equal(t, "pb", rec.Triage.Outcome)
	assert.Equal(t, "online", rec.Demand.Modality)
	assert.Equal(t, []string{id.String()}, notifier.Calls)
}

func TestGetNotFound(t *testing.T) {
	store := cases.NewStore(casestest.NewRepository(), nil, nil)
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, cases.ErrCaseNotFound)

	_, err = store.FindByTaxID(context.Background(), "")
	assert.True(t, cases.IsValidation(err))
}
