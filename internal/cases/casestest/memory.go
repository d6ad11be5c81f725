// Package casestest provides an in-memory case repository for tests.
package casestest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

type Repository struct {
	mu    sync.Mutex
	cases map[uuid.UUID]cases.CaseRecord
	// Patches records every patch in order, for assertions.
	Patches []cases.Patch
}

func NewRepository(seed ...cases.CaseRecord) *Repository {
	r := &Repository{cases: map[uuid.UUID]cases.CaseRecord{}}
	for _, c := range seed {
		r.cases[c.ID] = clone(c)
	}
	return r
}

// clone deep-copies through JSON so tests cannot alias stored state.
func clone(c cases.CaseRecord) cases.CaseRecord {
	data, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out cases.CaseRecord
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}

func (r *Repository) Create(_ context.Context, rec cases.CaseRecord) (*cases.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Patient.TaxID = cases.NormalizeTaxID(rec.Patient.TaxID)
	r.cases[rec.ID] = clone(rec)
	out := clone(rec)
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*cases.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, cases.ErrCaseNotFound
	}
	out := clone(c)
	return &out, nil
}

func (r *Repository) FindByTaxID(_ context.Context, taxID string) (*cases.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := cases.NormalizeTaxID(taxID)
	var found *cases.CaseRecord
	for _, c := range r.cases {
		if cases.NormalizeTaxID(c.Patient.TaxID) != want {
			continue
		}
		if found == nil || c.LastUpdate.After(found.LastUpdate) {
			cc := clone(c)
			found = &cc
		}
	}
	if found == nil {
		return nil, cases.ErrCaseNotFound
	}
	return found, nil
}

func (r *Repository) ApplyPatch(_ context.Context, id uuid.UUID, p cases.Patch, actor string, at time.Time) (*cases.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, cases.ErrCaseNotFound
	}
	if p.From != nil && c.Status != *p.From {
		return nil, cases.ErrStaleCase
	}
	updated := p.Apply(c, actor, at)
	r.cases[id] = clone(updated)
	r.Patches = append(r.Patches, p)
	out := clone(updated)
	return &out, nil
}

func (r *Repository) List(_ context.Context, f cases.ListFilter) ([]cases.CaseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[cases.Status]bool{}
	for _, s := range f.Statuses {
		want[s] = true
	}
	var out []cases.CaseRecord
	for _, c := range r.cases {
		if len(want) > 0 && !want[c.Status] {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdate.Equal(out[j].LastUpdate) {
			return out[i].LastUpdate.After(out[j].LastUpdate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Notifier counts notifications per case id.
type Notifier struct {
	mu    sync.Mutex
	Calls []string
}

func (n *Notifier) CaseChanged(_ context.Context, caseID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, caseID)
	return nil
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}
