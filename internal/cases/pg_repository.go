package cases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/db"
)

const caseColumns = `id, full_name, birth_date, tax_id, phone, email, status, payload, created_at, last_update, last_updated_by`

type PgRepository struct {
	pool db.Querier
}

// NewPgRepository accepts a pool or a pgx.Tx, so callers can enlist case writes in a
// wider transaction.
func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanCase(row pgx.Row) (*CaseRecord, error) {
	var c CaseRecord
	var raw []byte

	err := row.Scan(
		&c.ID,
		&c.Patient.FullName,
		&c.Patient.BirthDate,
		&c.Patient.TaxID,
		&c.Patient.Phone,
		&c.Patient.Email,
		&c.Status,
		&raw,
		&c.CreatedAt,
		&c.LastUpdate,
		&c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if len(raw) > 0 {
		var p payload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode case payload: %w", err)
		}
		c.setPayload(p)
	}
	return &c, nil
}

func (r *PgRepository) Create(ctx context.Context, rec CaseRecord) (*CaseRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	data, err := json.Marshal(rec.payload())
	if err != nil {
		return nil, fmt.Errorf("marshal case payload: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO cases (id, full_name, birth_date, tax_id, phone, email, status, payload, created_at, last_update, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10)
		RETURNING `+caseColumns,
		rec.ID,
		rec.Patient.FullName,
		rec.Patient.BirthDate,
		NormalizeTaxID(rec.Patient.TaxID),
		rec.Patient.Phone,
		rec.Patient.Email,
		string(rec.Status),
		data,
		rec.LastUpdate,
		rec.LastUpdatedBy,
	)
	return scanCase(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*CaseRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+caseColumns+`
		FROM cases
		WHERE id = $1
	`, id)
	return scanCase(row)
}

// FindByTaxID returns the most recently updated case for the tax id.
func (r *PgRepository) FindByTaxID(ctx context.Context, taxID string) (*CaseRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+caseColumns+`
		FROM cases
		WHERE tax_id = $1
		ORDER BY last_update DESC
		LIMIT 1
	`, NormalizeTaxID(taxID))
	return scanCase(row)
}

func (r *PgRepository) ApplyPatch(ctx context.Context, id uuid.UUID, p Patch, actor string, at time.Time) (*CaseRecord, error) {
	data, err := p.payloadJSON()
	if err != nil {
		return nil, err
	}

	var status, from *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	if p.From != nil {
		f := string(*p.From)
		from = &f
	}
	var name, birth, taxID, phone, email *string
	if p.Patient != nil {
		tax := NormalizeTaxID(p.Patient.TaxID)
		name, birth, taxID, phone, email = &p.Patient.FullName, &p.Patient.BirthDate, &tax, &p.Patient.Phone, &p.Patient.Email
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE cases
		SET status = COALESCE($2, status),
		    full_name = COALESCE($3, full_name),
		    birth_date = COALESCE($4, birth_date),
		    tax_id = COALESCE($5, tax_id),
		    phone = COALESCE($6, phone),
		    email = COALESCE($7, email),
		    payload = payload || $8::jsonb,
		    last_update = $9,
		    last_updated_by = $10
		WHERE id = $1
		  AND ($11::text IS NULL OR status = $11)
		RETURNING `+caseColumns,
		id, status, name, birth, taxID, phone, email, data, at, actor, from,
	)
	updated, err := scanCase(row)
	if errors.Is(err, ErrCaseNotFound) && from != nil {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check case: %w", err)
		}
		if exists {
			return nil, ErrStaleCase
		}
	}
	return updated, err
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]CaseRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+caseColumns+`
		FROM cases
		WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
		ORDER BY last_update DESC, id
		LIMIT $2 OFFSET $3
	`, statuses, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var result []CaseRecord
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
