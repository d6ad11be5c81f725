package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/db"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

const bookingColumns = `id, case_id, professional_id, slot_date, slot_time, modality, status, created_by, created_at, cancelled_at`

type Repository interface {
	// ActiveKeys returns the keys of active bookings with fromDate <= date <= toDate.
	ActiveKeys(ctx context.Context, fromDate, toDate string) ([]slots.BookingKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// Reserve writes the case side and the booking atomically. A lost race on the
	// booking key returns ErrSlotAlreadyBooked and nothing is written.
	Reserve(ctx context.Context, r Reservation) (*Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Booking, error)
}

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.CaseID,
		&b.ProfessionalID,
		&b.Date,
		&b.Time,
		&b.Modality,
		&b.Status,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PgRepository) ActiveKeys(ctx context.Context, fromDate, toDate string) ([]slots.BookingKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT professional_id, slot_date, slot_time
		FROM bookings
		WHERE status = 'active'
		  AND slot_date BETWEEN $1 AND $2
	`, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var result []slots.BookingKey
	for rows.Next() {
		var k slots.BookingKey
		if err := rows.Scan(&k.ProfessionalID, &k.Date, &k.Time); err != nil {
			return nil, fmt.Errorf("scan booking key: %w", err)
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *PgRepository) Reserve(ctx context.Context, res Reservation) (*Booking, error) {
	var booked *Booking
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		caseRepo := cases.NewPgRepository(tx)
		b := res.Booking

		switch {
		case res.NewCase != nil:
			created, err := caseRepo.Create(ctx, *res.NewCase)
			if err != nil {
				return fmt.Errorf("create case: %w", err)
			}
			b.CaseID = created.ID
		case res.CasePatch != nil:
			if _, err := caseRepo.ApplyPatch(ctx, res.CaseID, *res.CasePatch, res.Actor, res.At); err != nil {
				return fmt.Errorf("update case: %w", err)
			}
			b.CaseID = res.CaseID
		default:
			b.CaseID = res.CaseID
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO bookings (id, case_id, professional_id, slot_date, slot_time, modality, status, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8)
			ON CONFLICT (professional_id, slot_date, slot_time) WHERE status = 'active' DO NOTHING
			RETURNING `+bookingColumns,
			b.ID, b.CaseID, b.ProfessionalID, b.Date, b.Time, b.Modality, b.CreatedBy, res.At,
		)
		inserted, err := scanBooking(row)
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				return ErrSlotAlreadyBooked
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		booked = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    cancelled_at = now()
		WHERE id = $1
		  AND status = 'active'
		RETURNING `+bookingColumns,
		id,
	)
	return scanBooking(row)
}
