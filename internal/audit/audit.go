package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/db"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
)

const (
	EventCaseCreated         = "CASE_CREATED"
	EventStageCommitted      = "STAGE_COMMITTED"
	EventBookingCreated      = "BOOKING_CREATED"
	EventBookingCancelled    = "BOOKING_CANCELLED"
	EventEngagementClosed    = "ENGAGEMENT_CLOSED"
	EventAttemptCreated      = "ATTEMPT_CREATED"
	EventAttemptAdvanced     = "ATTEMPT_ADVANCED"
	EventProfessionalCreated = "PROFESSIONAL_CREATED"
)

type EventLog struct {
	ID        int64
	EventType string
	CaseID    *uuid.UUID
	Actor     string
	Payload   []byte
	CreatedAt time.Time
}

// Recorder writes audit events. Failures are logged, never returned: an audit miss
// must not undo a committed business write.
type Recorder struct {
	pool   db.Querier
	logger *logging.Logger
}

func NewRecorder(pool db.Querier, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{pool: pool, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any) {
	if r == nil || r.pool == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to marshal event payload", "event_type", eventType, "error", err.Error())
		data = nil
	}

	var id *uuid.UUID
	if caseID != uuid.Nil {
		id = &caseID
	}

	ev := EventLog{
		EventType: eventType,
		CaseID:    id,
		Actor:     actor,
		Payload:   data,
		CreatedAt: time.Now(),
	}
	if err := r.insert(ctx, ev); err != nil {
		r.logger.Error("failed to insert event log",
			"event_type", eventType,
			"case_id", caseID.String(),
			"error", err.Error(),
		)
	}
}

func (r *Recorder) insert(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, case_id, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.CaseID, ev.Actor, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
