package attempts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/db"
)

const attemptColumns = `id, case_id, professional_id, patient_name, professional_name, status, notes, created_by, updated_by, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, a Attempt) (*Attempt, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Attempt, error)
	// UpdateStatus moves the attempt only if it is still at from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Label, actor string) (*Attempt, error)
	List(ctx context.Context, f Filter) ([]Attempt, error)
}

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*Attempt, error) {
	var a Attempt
	err := row.Scan(
		&a.ID,
		&a.CaseID,
		&a.ProfessionalID,
		&a.PatientName,
		&a.ProfessionalName,
		&a.Status,
		&a.Notes,
		&a.CreatedBy,
		&a.UpdatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a Attempt) (*Attempt, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO scheduling_attempts (id, case_id, professional_id, patient_name, professional_name, status, notes, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, now(), now())
		RETURNING `+attemptColumns,
		a.ID, a.CaseID, a.ProfessionalID, a.PatientName, a.ProfessionalName, string(a.Status), a.Notes, a.CreatedBy,
	)
	created, err := scanAttempt(row)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM scheduling_attempts WHERE id = $1`, id)
	return scanAttempt(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Label, actor string) (*Attempt, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE scheduling_attempts
		SET status = $2,
		    updated_by = $4,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+attemptColumns,
		id, string(to), string(from), actor,
	)
	return scanAttempt(row)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Attempt, error) {
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM scheduling_attempts
		WHERE ($1::uuid IS NULL OR case_id = $1)
		  AND ($2::uuid IS NULL OR professional_id = $2)
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))
		ORDER BY updated_at DESC
	`, f.CaseID, f.ProfessionalID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var result []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
