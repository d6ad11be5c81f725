package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases/casestest"
	redisclient "github.com/hackgods/clinic-journey-scheduling/internal/redis"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

type fakeWindows struct {
	groups []availability.ProfessionalWindows
}

func (f *fakeWindows) ListByProfessional(_ context.Context, id uuid.UUID) ([]availability.Window, error) {
	for _, g := range f.groups {
		if g.ProfessionalID == id {
			return g.Windows, nil
		}
	}
	return nil, nil
}

func (f *fakeWindows) ListAll(context.Context, availability.Filter) ([]availability.ProfessionalWindows, error) {
	return f.groups, nil
}

func (f *fakeWindows) Replace(context.Context, uuid.UUID, []availability.Window) error { return nil }

// memBookings mirrors the unique active-booking index.
type memBookings struct {
	mu       sync.Mutex
	cases    *casestest.Repository
	bookings map[uuid.UUID]Booking
}

func (m *memBookings) ActiveKeys(_ context.Context, from, to string) ([]slots.BookingKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []slots.BookingKey
	for _, b := range m.bookings {
		if b.Status == StatusActive && b.Date >= from && b.Date <= to {
			out = append(out, b.Key())
		}
	}
	return out, nil
}

func (m *memBookings) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *memBookings) Reserve(ctx context.Context, r Reservation) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Status == StatusActive && b.Key() == r.Booking.Key() {
			return nil, ErrSlotAlreadyBooked
		}
	}
	b := r.Booking
	b.Status = StatusActive
	b.CaseID = r.CaseID
	if r.NewCase != nil {
		created, err := m.cases.Create(ctx, *r.NewCase)
		if err != nil {
			return nil, err
		}
		b.CaseID = created.ID
	} else if r.CasePatch != nil {
		if _, err := m.cases.ApplyPatch(ctx, r.CaseID, *r.CasePatch, r.Actor, r.At); err != nil {
			return nil, err
		}
	}
	m.bookings[b.ID] = b
	return &b, nil
}

func (m *memBookings) Cancel(_ context.Context, id uuid.UUID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != StatusActive {
		return nil, ErrBookingNotFound
	}
	b.Status = StatusCancelled
	m.bookings[id] = b
	return &b, nil
}

type fixture struct {
	svc      *Service
	cases    *casestest.Repository
	notifier *casestest.Notifier
	bookings *memBookings
	prof     uuid.UUID
}

func newFixture(t *testing.T, seed ...cases.CaseRecord) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	prof := uuid.New()
	windows := &fakeWindows{groups: []availability.ProfessionalWindows{{
		ProfessionalID:   prof,
		ProfessionalName: "Ana Lima",
		Windows: []availability.Window{{
			ID:             uuid.New(),
			ProfessionalID: prof,
			Weekdays:       []time.Weekday{time.Monday},
			StartTime:      "09:00",
			EndTime:        "10:00",
			Modality:       availability.ModalityOnline,
			Status:         availability.StatusAvailable,
		}},
	}}}

	caseRepo := casestest.NewRepository(seed...)
	notifier := &casestest.Notifier{}
	bookings := &memBookings{cases: caseRepo, bookings: map[uuid.UUID]Booking{}}
	svc := NewService(windows, bookings, cases.NewStore(caseRepo, notifier, nil),
		redisclient.NewRedisKeyLocker(client, 5*time.Second), nil, nil, nil,
		Options{PublicHorizonDays: 7, ManualHorizonDays: 7, Location: loc})
	// Sunday 2026-10-18, mid-morning in the clinic's timezone.
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, loc) }

	return fixture{svc: svc, cases: caseRepo, notifier: notifier, bookings: bookings, prof: prof}
}

func (f fixture) ref(clock string) SlotRef {
	return SlotRef{ProfessionalID: f.prof, Date: "2026-10-19", Time: clock}
}

func TestGetAvailableSlots(t *testing.T) {
	f := newFixture(t)
	open, err := f.svc.GetAvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "09:00", open[0].StartTime)
	assert.Equal(t, "09:30", open[1].StartTime)
	assert.Equal(t, 2, open[0].Capacity)
}

func TestBookSlotCreatesCaseAndHidesSlot(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.BookSlot(context.Background(), BookRequest{
		TaxID: "123.456.789-00", Name: "Maria Souza", Phone: "11999990000", Slot: f.ref("09:00"),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	rec, err := f.cases.GetByID(context.Background(), res.CaseID)
	require.NoError(t, err)
	assert.Equal(t, cases.StatusInscricaoDocumentos, rec.Status)
	assert.Equal(t, "09:00", rec.Triage.Time)
	assert.Equal(t, PublicActor, rec.LastUpdatedBy)
	assert.Equal(t, 1, f.notifier.Count())

	open, err := f.svc.GetAvailableSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "09:30", open[0].StartTime)
	assert.Equal(t, 1, open[0].Booked)

	_, err = f.svc.BookSlot(context.Background(), BookRequest{
		TaxID: "98765432100", Name: "João Lima", Slot: f.ref("09:00"),
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestBookSlotRejectsUnofferedSlot(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BookSlot(context.Background(), BookRequest{TaxID: "12345678900", Name: "Maria", Slot: f.ref("10:00")})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = f.svc.BookSlot(context.Background(), BookRequest{TaxID: "123", Name: "Maria", Slot: f.ref("09:00")})
	assert.True(t, cases.IsValidation(err))
}

func TestBookSlotReusesExistingCase(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, cases.CaseRecord{
		ID:      id,
		Patient: cases.Identity{FullName: "Maria Souza", TaxID: "12345678900", Phone: "old"},
		Status:  cases.StatusTriagemAgendada,
	})

	res, err := f.svc.BookSlot(context.Background(), BookRequest{
		TaxID: "12345678900", Name: "Maria Souza", Phone: "new", Slot: f.ref("09:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.CaseID)

	rec, err := f.cases.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Patient.Phone)
	assert.Equal(t, cases.StatusTriagemAgendada, rec.Status, "booking never moves status")

	other := uuid.New()
	_, err = f.svc.BookSlot(context.Background(), BookRequest{
		TaxID: "12345678900", Name: "Maria", Slot: f.ref("09:00"), ExistingCaseID: &other,
	})
	assert.ErrorIs(t, err, cases.ErrCaseNotFound)
}

func TestConcurrentBookingsNeverDoubleBook(t *testing.T) {
	f := newFixture(t)
	const n = 20

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.BookSlot(context.Background(), BookRequest{
				TaxID: "12345678900", Name: "Maria", Slot: f.ref("09:00"),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotAlreadyBooked), errors.Is(err, ErrSlotBeingBooked):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)

	keys, err := f.bookings.ActiveKeys(context.Background(), "2026-10-19", "2026-10-19")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestCancelBookingFreesKey(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.BookSlot(context.Background(), BookRequest{TaxID: "12345678900", Name: "Maria", Slot: f.ref("09:00")})
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), res.BookingID, "staff-1")
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(context.Background(), res.BookingID, "staff-1")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	open, err := f.svc.GetAvailableSlots(context.Background())
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestCheckExistingCaseByTaxID(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, cases.CaseRecord{ID: id, Patient: cases.Identity{FullName: "Maria Souza", TaxID: "12345678900"}, Status: cases.StatusAlta})

	res, err := f.svc.CheckExistingCaseByTaxID(context.Background(), "123.456.789-00")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, id, *res.CaseID)
	assert.Equal(t, "Maria", res.PatientSummary.FirstName)

	res, err = f.svc.CheckExistingCaseByTaxID(context.Background(), "11111111111")
	require.NoError(t, err)
	assert.False(t, res.Exists)
}

func TestManualMatches(t *testing.T) {
	id := uuid.New()
	f := newFixture(t, cases.CaseRecord{
		ID:     id,
		Status: cases.StatusEncaminharParaPB,
		Demand: &cases.Demand{Modality: "ambos", Buckets: []string{"manha-semana_09:00"}},
	})

	groups, err := f.svc.ManualMatches(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, f.prof, groups[0].ProfessionalID)
	assert.Len(t, groups[0].Slots, 2, "09:00 and 09:30 share the 9 o'clock hour")
}
