package cases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrStaleCase    = errors.New("case changed concurrently, reload and retry")
)

type ListFilter struct {
	Statuses []Status
	Limit    int
	Offset   int
}

// Repository contains all DB interactions for case records.
type Repository interface {
	Create(ctx context.Context, rec CaseRecord) (*CaseRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CaseRecord, error)
	FindByTaxID(ctx context.Context, taxID string) (*CaseRecord, error)

	// ApplyPatch writes only the fields the patch sets. Concurrent patches on the same
	// case are last-write-wins per field, unless the patch carries From: then it only
	// applies while the stored status still equals it, and ErrStaleCase is returned
	// otherwise.
	ApplyPatch(ctx context.Context, id uuid.UUID, p Patch, actor string, at time.Time) (*CaseRecord, error)

	List(ctx context.Context, f ListFilter) ([]CaseRecord, error)
}
