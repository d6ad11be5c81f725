package professional

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/db"
)

const professionalColumns = `id, username, full_name, email, role, color, accepts_public_booking, active, created_at, updated_at`

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, p Professional) (*Professional, error)
	List(ctx context.Context, activeOnly bool) ([]Professional, error)
}

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.Email,
		&p.Role,
		&p.Color,
		&p.AcceptsPublicBooking,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+professionalColumns+` FROM professionals WHERE id = $1`, id)
	return scanProfessional(row)
}

func (r *PgRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM professionals WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// Create relies on the unique username index as the final arbiter; a concurrent insert
// of the same username surfaces as ErrUsernameTaken.
func (r *PgRepository) Create(ctx context.Context, p Professional) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO professionals (id, username, full_name, email, role, color, accepts_public_booking, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+professionalColumns,
		p.ID, p.Username, p.FullName, p.Email, string(p.Role), p.Color, p.AcceptsPublicBooking, p.Active,
	)
	created, err := scanProfessional(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert professional: %w", err)
	}
	return created, nil
}

func (r *PgRepository) List(ctx context.Context, activeOnly bool) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+professionalColumns+`
		FROM professionals
		WHERE ($1::boolean = false OR active)
		ORDER BY full_name
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	var result []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
