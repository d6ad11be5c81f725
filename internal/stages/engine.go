package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/audit"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
)

// CaseStore is the part of cases.Store the engine needs.
type CaseStore interface {
	Get(ctx context.Context, id uuid.UUID) (*cases.CaseRecord, error)
	Apply(ctx context.Context, id uuid.UUID, p cases.Patch, actor string) (*cases.CaseRecord, error)
}

type EventRecorder interface {
	Record(ctx context.Context, caseID uuid.UUID, actor, eventType string, payload map[string]any)
}

type discardEvents struct{}

func (discardEvents) Record(context.Context, uuid.UUID, string, string, map[string]any) {}

// Engine runs stage commits against stored cases.
type Engine struct {
	registry *Registry
	store    CaseStore
	events   EventRecorder
	metrics  *metrics.Scheduling
	logger   *logging.Logger
	now      func() time.Time
}

func NewEngine(registry *Registry, store CaseStore, events EventRecorder, m *metrics.Scheduling, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	if events == nil {
		events = discardEvents{}
	}
	return &Engine{
		registry: registry,
		store:    store,
		events:   events,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Present loads a case and projects it through its current stage.
func (e *Engine) Present(ctx context.Context, caseID uuid.UUID) (ViewModel, error) {
	rec, err := e.store.Get(ctx, caseID)
	if err != nil {
		return ViewModel{}, err
	}
	h, err := e.registry.Resolve(rec.Status)
	if err != nil {
		return ViewModel{}, err
	}
	return h.Present(*rec), nil
}

// Commit validates input against the case's current stage and persists the result.
// Commits on terminal cases are no-ops returning the stored record.
func (e *Engine) Commit(ctx context.Context, caseID uuid.UUID, actor string, in Input) (*cases.CaseRecord, error) {
	rec, err := e.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return e.commit(ctx, rec, actor, in)
}

// RecordEngagementOutcome closes one engagement of a case in brief therapy, cascading to
// the case status when it was the last active one.
func (e *Engine) RecordEngagementOutcome(ctx context.Context, caseID uuid.UUID, actor string, in EngagementOutcomeInput) (*cases.CaseRecord, error) {
	rec, err := e.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec.Status != cases.StatusEmAtendimentoPB {
		return nil, fmt.Errorf("%w: case is %s", ErrStageMismatch, rec.Status)
	}
	updated, err := e.commit(ctx, rec, actor, Input{EngagementOutcome: &in})
	if err != nil {
		return nil, err
	}
	e.events.Record(ctx, caseID, actor, audit.EventEngagementClosed, map[string]any{
		"engagement_id": in.EngagementID,
		"outcome":       string(in.Kind),
		"case_status":   string(updated.Status),
	})
	return updated, nil
}

func (e *Engine) commit(ctx context.Context, rec *cases.CaseRecord, actor string, in Input) (*cases.CaseRecord, error) {
	from := rec.Status
	if from.Terminal() {
		e.metrics.ObserveStageCommit(string(from), "noop")
		return rec, nil
	}

	h, err := e.registry.Resolve(from)
	if err != nil {
		return nil, err
	}

	in.Meta = Meta{Actor: actor, At: e.now()}
	res, err := h.Commit(*rec, in)
	if err != nil {
		e.metrics.ObserveStageCommit(string(from), "invalid")
		return nil, err
	}

	patch := res.Patch
	if res.Next != nil {
		if !cases.CanTransition(from, *res.Next) {
			e.metrics.ObserveStageCommit(string(from), "rejected")
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, *res.Next)
		}
		patch.Status = res.Next
	}
	if patch.Empty() {
		e.metrics.ObserveStageCommit(string(from), "noop")
		return rec, nil
	}
	// The handler validated against from; a case that moved on since the read is
	// not written.
	patch.From = &from

	updated, err := e.store.Apply(ctx, rec.ID, patch, actor)
	if err != nil {
		if errors.Is(err, cases.ErrStaleCase) {
			e.metrics.ObserveStageCommit(string(from), "stale")
			return nil, err
		}
		e.metrics.ObserveStageCommit(string(from), "error")
		if errors.Is(err, cases.ErrCaseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("commit %s stage: %w", from, err)
	}

	e.metrics.ObserveStageCommit(string(from), "ok")
	e.events.Record(ctx, rec.ID, actor, audit.EventStageCommitted, map[string]any{
		"from": string(from),
		"to":   string(updated.Status),
	})
	if updated.Status != from {
		e.logger.Info("case advanced",
			"case_id", rec.ID.String(),
			"from", string(from),
			"to", string(updated.Status),
			"actor", actor,
		)
	}
	return updated, nil
}
