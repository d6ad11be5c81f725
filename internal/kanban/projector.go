package kanban

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
)

// BoardKey holds the latest serialized board.
const BoardKey = "kanban:board"

const snapshotPage = 1000

type CaseLister interface {
	List(ctx context.Context, f cases.ListFilter) ([]cases.CaseRecord, error)
}

type ProfessionalLister interface {
	List(ctx context.Context, activeOnly bool) ([]professional.Professional, error)
}

// Projector rebuilds the board from a full snapshot and caches it in Redis.
type Projector struct {
	cases         CaseLister
	professionals ProfessionalLister
	client        *redis.Client
	metrics       *metrics.Scheduling
	logger        *logging.Logger
	now           func() time.Time
	pageSize      int
}

func NewProjector(cl CaseLister, pl ProfessionalLister, client *redis.Client, m *metrics.Scheduling, logger *logging.Logger) *Projector {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Projector{cases: cl, professionals: pl, client: client, metrics: m, logger: logger, now: time.Now, pageSize: snapshotPage}
}

// Rebuild recomputes the whole board. trigger is recorded in metrics only.
func (p *Projector) Rebuild(ctx context.Context, trigger string) (Board, error) {
	recs, err := p.snapshot(ctx)
	if err != nil {
		return Board{}, err
	}
	profs, err := p.professionals.List(ctx, false)
	if err != nil {
		return Board{}, fmt.Errorf("snapshot professionals: %w", err)
	}

	board := Build(recs, NewReadModel(profs), p.now())
	p.metrics.ObserveProjectionRebuild(trigger)

	if p.client != nil {
		data, err := json.Marshal(board)
		if err != nil {
			return board, fmt.Errorf("encode board: %w", err)
		}
		if err := p.client.Set(ctx, BoardKey, data, 0).Err(); err != nil {
			return board, fmt.Errorf("store board: %w", err)
		}
	}
	return board, nil
}

// snapshot pages through every case. A case updated mid-scan can shift between pages;
// duplicates are dropped here and a missed card is picked up by the rebuild its own
// change notification triggers.
func (p *Projector) snapshot(ctx context.Context) ([]cases.CaseRecord, error) {
	seen := make(map[uuid.UUID]struct{})
	var all []cases.CaseRecord
	for offset := 0; ; offset += p.pageSize {
		page, err := p.cases.List(ctx, cases.ListFilter{Limit: p.pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("snapshot cases: %w", err)
		}
		for _, rec := range page {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			all = append(all, rec)
		}
		if len(page) < p.pageSize {
			return all, nil
		}
	}
}

// Current returns the cached board, rebuilding it when the cache is empty.
func (p *Projector) Current(ctx context.Context) (Board, error) {
	if p.client != nil {
		data, err := p.client.Get(ctx, BoardKey).Bytes()
		switch {
		case err == nil:
			var board Board
			if err := json.Unmarshal(data, &board); err == nil {
				return board, nil
			}
			p.logger.Warn("discarding undecodable cached board")
		case !errors.Is(err, redis.Nil):
			p.logger.Warn("board cache read failed", "error", err.Error())
		}
	}
	return p.Rebuild(ctx, "read")
}

// Run rebuilds on every case-change notification and on every tick until ctx ends.
func (p *Projector) Run(ctx context.Context, interval time.Duration) error {
	if p.client == nil {
		return errors.New("projector needs a redis client")
	}
	p.rebuildLogged(ctx, "startup")

	changes := make(chan string, 64)
	subErr := make(chan error, 1)
	go func() {
		subErr <- redisclient.Subscribe(ctx, p.client, redisclient.CaseChangesChannel, func(caseID string) {
			select {
			case changes <- caseID:
			default:
				// A rebuild is already queued and will see this change too.
			}
		})
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-subErr:
			return err
		case caseID := <-changes:
			drain(changes)
			p.logger.Debug("case changed, rebuilding board", "case_id", caseID)
			p.rebuildLogged(ctx, "notification")
		case <-ticker.C:
			p.rebuildLogged(ctx, "interval")
		}
	}
}

func (p *Projector) rebuildLogged(ctx context.Context, trigger string) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	board, err := p.Rebuild(runCtx, trigger)
	if err != nil {
		p.logger.Error("board rebuild failed", "trigger", trigger, "error", err.Error())
		return
	}
	p.logger.Info("board rebuilt", "trigger", trigger, "cases", board.Total, "took", time.Since(start).String())
}

func drain(ch <-chan string) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
