package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-journey-scheduling/internal/db"
)

// Filter narrows ListAll.
type Filter struct {
	PublicOnly bool // only professionals that accept self-service booking
}

type Repository interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Window, error)
	ListAll(ctx context.Context, f Filter) ([]ProfessionalWindows, error)
	Replace(ctx context.Context, professionalID uuid.UUID, windows []Window) error
}

type PgRepository struct {
	pool db.Querier
}

func NewPgRepository(pool db.Querier) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanWindow(row pgx.Row, extra ...any) (Window, error) {
	var w Window
	var days []int16
	dest := append([]any{
		&w.ID,
		&w.ProfessionalID,
		&days,
		&w.StartTime,
		&w.EndTime,
		&w.Modality,
		&w.Status,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Window{}, err
	}
	w.Weekdays = make([]time.Weekday, 0, len(days))
	for _, d := range days {
		w.Weekdays = append(w.Weekdays, time.Weekday(d))
	}
	return w, nil
}

func (r *PgRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, weekdays, start_time, end_time, modality, status
		FROM availability_windows
		WHERE professional_id = $1
		ORDER BY start_time
	`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var result []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListAll(ctx context.Context, f Filter) ([]ProfessionalWindows, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.professional_id, w.weekdays, w.start_time, w.end_time, w.modality, w.status, p.full_name
		FROM availability_windows w
		JOIN professionals p ON p.id = w.professional_id
		WHERE p.active
		  AND ($1::boolean = false OR p.accepts_public_booking)
		ORDER BY p.full_name, w.professional_id, w.start_time
	`, f.PublicOnly)
	if err != nil {
		return nil, fmt.Errorf("list all windows: %w", err)
	}
	defer rows.Close()

	var result []ProfessionalWindows
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var name string
		w, err := scanWindow(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		i, ok := index[w.ProfessionalID]
		if !ok {
			i = len(result)
			index[w.ProfessionalID] = i
			result = append(result, ProfessionalWindows{ProfessionalID: w.ProfessionalID, ProfessionalName: name})
		}
		result[i].Windows = append(result[i].Windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Replace swaps every window of a professional in one transaction.
func (r *PgRepository) Replace(ctx context.Context, professionalID uuid.UUID, windows []Window) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM availability_windows WHERE professional_id = $1`, professionalID); err != nil {
			return fmt.Errorf("delete windows: %w", err)
		}
		for _, w := range windows {
			id := w.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			status := w.Status
			if status == "" {
				status = StatusAvailable
			}
			days := make([]int16, 0, len(w.Weekdays))
			for _, d := range w.Weekdays {
				days = append(days, int16(d))
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_windows (id, professional_id, weekdays, start_time, end_time, modality, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, professionalID, days, w.StartTime, w.EndTime, string(w.Modality), string(status))
			if err != nil {
				return fmt.Errorf("insert window: %w", err)
			}
		}
		return nil
	})
}
