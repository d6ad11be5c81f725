package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var windowColumns = []string{"id", "professional_id", "weekdays", "start_time", "end_time", "modality", "status"}

func TestListByProfessional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	profID := uuid.New()
	winID := uuid.New()

	mock.ExpectQuery("FROM availability_windows").
		WithArgs(profID).
		WillReturnRows(pgxmock.NewRows(windowColumns).
			AddRow(winID, profID, []int16{1, 3}, "09:00", "10:00", ModalityOnline, StatusAvailable))

	windows, err := repo.ListByProfessional(context.Background(), profID)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, windows[0].Weekdays)
	assert.Equal(t, ModalityOnline, windows[0].Modality)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllGroupsByProfessional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	ana, bia := uuid.New(), uuid.New()

	mock.ExpectQuery("JOIN professionals").
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows(append(windowColumns, "full_name")).
			AddRow(uuid.New(), ana, []int16{1}, "09:00", "10:00", ModalityOnline, StatusAvailable, "Ana").
			AddRow(uuid.New(), ana, []int16{2}, "14:00", "15:00", ModalityBoth, StatusAvailable, "Ana").
			AddRow(uuid.New(), bia, []int16{6}, "08:00", "09:00", ModalityPresencial, StatusUnavailable, "Bia"))

	grouped, err := repo.ListAll(context.Background(), Filter{PublicOnly: true})
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, "Ana", grouped[0].ProfessionalName)
	assert.Len(t, grouped[0].Windows, 2)
	assert.Equal(t, bia, grouped[1].ProfessionalID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceIsTransactional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	profID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM availability_windows").WithArgs(profID).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO availability_windows").
		WithArgs(pgxmock.AnyArg(), profID, []int16{1}, "09:00", "10:00", "online", "available").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = repo.Replace(context.Background(), profID, []Window{
		{Weekdays: []time.Weekday{time.Monday}, StartTime: "09:00", EndTime: "10:00", Modality: ModalityOnline},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
