package cases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caseCols = []string{"id", "full_name", "birth_date", "tax_id", "phone", "email", "status", "payload", "created_at", "last_update", "last_updated_by"}

func TestGetByIDDecodesPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()
	now := time.Now().UTC()
	payload := []byte(`{"engagements":[{"id":"e1","professionalId":"` + uuid.NewString() + `","status":"active","registeredInExternalSystem":false}],"demand":{"modality":"online","buckets":["manha-semana_09:00"]}}`)

	mock.ExpectQuery("FROM cases").WithArgs(id).WillReturnRows(pgxmock.NewRows(caseCols).
		AddRow(id, "Maria Souza", "1990-02-03", "12345678900", "11999999999", "maria@example.com", StatusAguardandoInfoHorarios, payload, now, now, "staff-1"))

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusAguardandoInfoHorarios, rec.Status)
	require.Len(t, rec.Engagements, 1)
	assert.True(t, rec.Engagements[0].Active())
	assert.Equal(t, []string{"manha-semana_09:00"}, rec.Demand.Buckets)
	assert.Nil(t, rec.Triage, "absent block stays nil")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM cases").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err = NewPgRepository(mock).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestApplyPatchMergesPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()
	now := time.Now().UTC()
	status := string(StatusTriagemAgendada)
	var nilStr *string

	mock.ExpectQuery(`payload = payload \|\| \$8::jsonb`).
		WithArgs(id, &status, nilStr, nilStr, nilStr, nilStr, nilStr, []byte(`{"triage":{"exempt":true}}`), now, "staff-1", nilStr).
		WillReturnRows(pgxmock.NewRows(caseCols).
			AddRow(id, "Maria", "", "12345678900", "", "", StatusTriagemAgendada, []byte(`{"triage":{"exempt":true}}`), now, now, "staff-1"))

	rec, err := repo.ApplyPatch(context.Background(), id, Patch{
		Status: StatusPtr(StatusTriagemAgendada),
		Triage: &TriageInfo{Exempt: true},
	}, "staff-1", now)
	require.NoError(t, err)
	assert.True(t, rec.Triage.Exempt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPatchGuardsExpectedStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()
	now := time.Now().UTC()
	status := string(StatusEncaminharParaPB)
	from := string(StatusEmAtendimentoPlantao)
	var nilStr *string

	mock.ExpectQuery(`AND \(\$11::text IS NULL OR status = \$11\)`).
		WithArgs(id, &status, nilStr, nilStr, nilStr, nilStr, nilStr, pgxmock.AnyArg(), now, "staff-2", &from).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.ApplyPatch(context.Background(), id, Patch{
		From:   StatusPtr(StatusEmAtendimentoPlantao),
		Status: StatusPtr(StatusEncaminharParaPB),
	}, "staff-2", now)
	assert.ErrorIs(t, err, ErrStaleCase)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPatchGuardedMissingCase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("UPDATE cases").
		WithArgs(id, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = NewPgRepository(mock).ApplyPatch(context.Background(), id, Patch{
		From:   StatusPtr(StatusTriagemAgendada),
		Status: StatusPtr(StatusDesistencia),
	}, "staff-1", time.Now())
	assert.ErrorIs(t, err, ErrCaseNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNormalizesTaxID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO cases").
		WithArgs(id, "Maria", "", "12345678900", "", "", "inscricao_documentos", pgxmock.AnyArg(), now, "staff-1").
		WillReturnRows(pgxmock.NewRows(caseCols).
			AddRow(id, "Maria", "", "12345678900", "", "", StatusInscricaoDocumentos, []byte(`{}`), now, now, "staff-1"))

	rec, err := NewPgRepository(mock).Create(context.Background(), CaseRecord{
		ID:            id,
		Patient:       Identity{FullName: "Maria", TaxID: "123.456.789-00"},
		Status:        StatusInscricaoDocumentos,
		LastUpdate:    now,
		LastUpdatedBy: "staff-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInscricaoDocumentos, rec.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("status = ANY").
		WithArgs([]string{"alta"}, 1000, 0).
		WillReturnRows(pgxmock.NewRows(caseCols).
			AddRow(uuid.New(), "A", "", "1", "", "", StatusAlta, []byte(nil), now, now, "x"))

	recs, err := NewPgRepository(mock).List(context.Background(), ListFilter{Statuses: []Status{StatusAlta}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusAlta, recs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
