package audit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
)

func TestRecordInsertsEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	caseID := uuid.New()
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventStageCommitted, &caseID, "staff-1", []byte(`{"from":"alta"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	NewRecorder(mock, nil).Record(context.Background(), caseID, "staff-1", EventStageCommitted, map[string]any{"from": "alta"})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSwallowsErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var buf bytes.Buffer
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventProfessionalCreated, pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	NewRecorder(mock, logging.NewWithWriter(&buf, "info")).Record(context.Background(), uuid.Nil, "", EventProfessionalCreated, nil)
	require.True(t, strings.Contains(buf.String(), "failed to insert event log"))
	require.True(t, strings.Contains(buf.String(), "db down"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), uuid.New(), "x", EventCaseCreated, nil)
}
