package kanban

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases/casestest"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
)

func TestBuildGroupsByStatusInJourneyOrder(t *testing.T) {
	prof := uuid.New()
	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	recs := []cases.CaseRecord{
		{ID: uuid.New(), Patient: cases.Identity{FullName: "Old"}, Status: cases.StatusAguardandoInfoHorarios, LastUpdate: t0,
			Engagements: cases.Engagements{{ID: "e1", ProfessionalID: prof, Status: cases.EngagementActive}}},
		{ID: uuid.New(), Patient: cases.Identity{FullName: "New"}, Status: cases.StatusAguardandoInfoHorarios, LastUpdate: t0.Add(time.Hour)},
		{ID: uuid.New(), Patient: cases.Identity{FullName: "Done"}, Status: cases.StatusAlta, LastUpdate: t0},
		{ID: uuid.New(), Status: "legacy_status", LastUpdate: t0},
	}
	rm := NewReadModel([]professional.Professional{{ID: prof, FullName: "Ana Lima", Color: "#123456"}})

	board := Build(recs, rm, t0)
	require.Len(t, board.Columns, len(cases.AllStatuses))
	for i, s := range cases.AllStatuses {
		assert.Equal(t, s, board.Columns[i].Status)
	}
	assert.Equal(t, 3, board.Total, "unknown statuses are not shown")

	col := board.Columns[5]
	require.Equal(t, cases.StatusAguardandoInfoHorarios, col.Status)
	require.Equal(t, 2, col.Count)
	assert.Equal(t, "New", col.Cards[0].PatientName, "latest update first")
	assert.Equal(t, "Ana Lima", col.Cards[1].Professionals[0].Name)
	assert.Equal(t, 1, col.Cards[1].Pending)

	again := Build(recs, rm, t0)
	assert.Equal(t, board, again, "rebuild from the same snapshot is idempotent")
}

type countingCases struct {
	calls atomic.Int32
	recs  []cases.CaseRecord
}

func (c *countingCases) List(context.Context, cases.ListFilter) ([]cases.CaseRecord, error) {
	c.calls.Add(1)
	return c.recs, nil
}

type noProfessionals struct{}

func (noProfessionals) List(context.Context, bool) ([]professional.Professional, error) {
	return nil, nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRebuildCachesBoard(t *testing.T) {
	client := setupRedis(t)
	src := &countingCases{recs: []cases.CaseRecord{{ID: uuid.New(), Status: cases.StatusInscricaoDocumentos}}}
	p := NewProjector(src, noProfessionals{}, client, nil, nil)

	board, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, board.Total)
	assert.Equal(t, int32(1), src.calls.Load(), "empty cache triggers a rebuild")

	cached, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Total)
	assert.Equal(t, int32(1), src.calls.Load(), "second read served from redis")
}

type pagedCases struct {
	repo    *casestest.Repository
	filters []cases.ListFilter
}

func (p *pagedCases) List(ctx context.Context, f cases.ListFilter) ([]cases.CaseRecord, error) {
	p.filters = append(p.filters, f)
	return p.repo.List(ctx, f)
}

func TestRebuildReadsEveryPage(t *testing.T) {
	t0 := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var seed []cases.CaseRecord
	for i := 0; i < 5; i++ {
		seed = append(seed, cases.CaseRecord{ID: uuid.New(), Status: cases.StatusTriagemAgendada, LastUpdate: t0.Add(time.Duration(i) * time.Minute)})
	}
	src := &pagedCases{repo: casestest.NewRepository(seed...)}
	p := NewProjector(src, noProfessionals{}, nil, nil, nil)
	p.pageSize = 2

	board, err := p.Rebuild(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 5, board.Total)
	require.Len(t, src.filters, 3)
	assert.Equal(t, 4, src.filters[2].Offset)
}

func TestRunRebuildsOnNotification(t *testing.T) {
	client := setupRedis(t)
	src := &countingCases{}
	p := NewProjector(src, noProfessionals{}, client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, time.Hour) }()

	pub := redisclient.NewPublisher(client, "")
	require.Eventually(t, func() bool {
		_ = pub.CaseChanged(context.Background(), uuid.NewString())
		return src.calls.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("projector did not stop")
	}
}
