package professional

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
)

var profCols = []string{"id", "username", "full_name", "email", "role", "color", "accepts_public_booking", "active", "created_at", "updated_at"}

func TestNormalizeUsername(t *testing.T) {
	tests := map[string]string{
		"  João  da Silva ": "joao.da.silva",
		"MARIA.Souza":       "maria.souza",
		"ana (psi)":         "ana.psi",
		"Conceição_2":       "conceicao_2",
		"   ":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUsername(in), in)
	}
}

func TestDefaultColorIsStable(t *testing.T) {
	assert.Equal(t, DefaultColor("joao.silva"), DefaultColor("joao.silva"))
	assert.Contains(t, palette, DefaultColor("x"))
}

func TestRoleElevated(t *testing.T) {
	assert.True(t, RoleAdmin.Elevated())
	assert.True(t, RoleCoordinator.Elevated())
	assert.False(t, RolePsychologist.Elevated())
	assert.False(t, Role("root").Valid())
}

func TestPgCreateMapsUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("INSERT INTO professionals").
		WithArgs(id, "ana", "Ana Lima", "ana@example.com", string(RolePsychologist), "#4E79A7", true, true).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "professionals_username_key"})

	_, err = NewPgRepository(mock).Create(context.Background(), Professional{
		ID: id, Username: "ana", FullName: "Ana Lima", Email: "ana@example.com",
		Role: RolePsychologist, Color: "#4E79A7", AcceptsPublicBooking: true, Active: true,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("FROM professionals WHERE id").WithArgs(id).
		WillReturnRows(pgxmock.NewRows(profCols).AddRow(id, "ana", "Ana Lima", "ana@example.com", RolePsychologist, "#4E79A7", true, true, now, now))

	p, err := NewPgRepository(mock).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", p.FullName)
	assert.True(t, p.AcceptsPublicBooking)
	require.NoError(t, mock.ExpectationsWereMet())
}

type memRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]Professional
}

func newMemRepo(seed ...Professional) *memRepo {
	r := &memRepo{items: map[uuid.UUID]Professional{}}
	for _, p := range seed {
		r.items[p.ID] = p
	}
	return r
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	return &p, nil
}

func (r *memRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Create(_ context.Context, p Professional) (*Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return &p, nil
}

func (r *memRepo) List(_ context.Context, _ bool) ([]Professional, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Professional
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, nil
}

func TestServiceCreate(t *testing.T) {
	svc := NewService(newMemRepo(Professional{ID: uuid.New(), Username: "ana.lima"}), nil, nil)

	res, err := svc.Create(context.Background(), "admin-1", CreateRequest{FullName: "Bruno Araújo", Role: RolePsychologist, Email: " Bruno@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "bruno.araujo", res.Professional.Username)
	assert.Equal(t, "bruno@example.com", res.Professional.Email)
	assert.NotEmpty(t, res.Professional.Color)
	assert.True(t, res.Professional.Active)

	_, err = svc.Create(context.Background(), "admin-1", CreateRequest{Username: "Ana Lima", FullName: "Ana Lima", Role: RolePsychologist})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Create(context.Background(), "admin-1", CreateRequest{FullName: "X", Role: "root"})
	assert.True(t, cases.IsValidation(err))
}

func TestUsernameAvailable(t *testing.T) {
	svc := NewService(newMemRepo(Professional{ID: uuid.New(), Username: "ana.lima"}), nil, nil)

	ok, err := svc.UsernameAvailable(context.Background(), "ANA LIMA")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.UsernameAvailable(context.Background(), "ana.costa")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.UsernameAvailable(context.Background(), "!!")
	assert.True(t, cases.IsValidation(err))
}
