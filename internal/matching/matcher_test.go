package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("manha-semana_09:00")
	require.NoError(t, err)
	assert.Equal(t, "manha", b.Period)
	assert.Equal(t, Weekday, b.Class)
	assert.Equal(t, 9, b.Hour)

	b, err = ParseBucket("tarde-fim-de-semana_14:30")
	require.NoError(t, err)
	assert.Equal(t, Weekend, b.Class)
	assert.Equal(t, 14, b.Hour)

	for _, bad := range []string{"", "manha_09:00", "manha-semana", "manha-feriado_09:00", "manha-semana_9h"} {
		_, err := ParseBucket(bad)
		assert.ErrorIs(t, err, ErrInvalidBucket, bad)
	}
}

func TestModalityCompatible(t *testing.T) {
	all := []availability.Modality{availability.ModalityOnline, availability.ModalityPresencial, availability.ModalityBoth, "ONLINE", "both"}
	for _, other := range all {
		assert.True(t, ModalityCompatible(availability.ModalityBoth, other), other)
		assert.True(t, ModalityCompatible(other, availability.ModalityBoth), other)
	}
	assert.True(t, ModalityCompatible("Online", availability.ModalityOnline))
	assert.False(t, ModalityCompatible(availability.ModalityOnline, availability.ModalityPresencial))
}

func slotAt(day time.Weekday, clock string, mod availability.Modality, status availability.Status) slots.Slot {
	return slots.Slot{
		Date:           "2026-10-19",
		StartTime:      clock,
		ProfessionalID: uuid.New(),
		Modality:       mod,
		Status:         status,
		Capacity:       2,
		Weekday:        day,
	}
}

func TestMatchManual(t *testing.T) {
	buckets, err := ParseBuckets([]string{"manha-semana_09:00", "manha-fds_10:00"})
	require.NoError(t, err)
	need := Need{Modality: availability.ModalityOnline, Buckets: buckets}

	candidates := []slots.Slot{
		slotAt(time.Monday, "09:00", availability.ModalityOnline, availability.StatusAvailable),      // match
		slotAt(time.Monday, "09:30", availability.ModalityBoth, availability.StatusAvailable),        // same hour, both
		slotAt(time.Monday, "10:00", availability.ModalityOnline, availability.StatusAvailable),      // wrong hour for weekday
		slotAt(time.Saturday, "10:00", availability.ModalityOnline, availability.StatusAvailable),    // weekend bucket
		slotAt(time.Monday, "09:00", availability.ModalityPresencial, availability.StatusAvailable),  // modality
		slotAt(time.Monday, "09:00", availability.ModalityBoth, availability.StatusUnavailable),      // unavailable
		slotAt(time.Sunday, "09:00", availability.ModalityOnline, availability.StatusAvailable),      // weekend, 09 not declared
	}

	got := MatchManual(need, candidates)
	require.Len(t, got, 3)
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.Equal(t, "09:30", got[1].StartTime)
	assert.Equal(t, time.Saturday, got[2].Weekday)
}

func TestUnavailableNeverMatchesEvenWithBoth(t *testing.T) {
	buckets, err := ParseBuckets([]string{"manha-semana_09:00"})
	require.NoError(t, err)
	need := Need{Modality: availability.ModalityBoth, Buckets: buckets}

	got := MatchManual(need, []slots.Slot{slotAt(time.Monday, "09:00", availability.ModalityBoth, availability.StatusUnavailable)})
	assert.Empty(t, got)
}

func TestMatchPublicSharesRule(t *testing.T) {
	buckets, err := ParseBuckets([]string{"noite-semana_19:00"})
	require.NoError(t, err)
	need := Need{Modality: availability.ModalityBoth, Buckets: buckets}

	open := []slots.Slot{
		slotAt(time.Wednesday, "19:30", availability.ModalityPresencial, availability.StatusAvailable),
		slotAt(time.Wednesday, "20:00", availability.ModalityOnline, availability.StatusAvailable),
	}
	got := MatchPublic(need, open)
	require.Len(t, got, 1)
	assert.Equal(t, "19:30", got[0].StartTime)
}

func TestGroupByProfessional(t *testing.T) {
	ana, bia := uuid.New(), uuid.New()
	matches := []slots.Slot{
		{Date: "2026-10-20", StartTime: "09:00", ProfessionalID: ana, ProfessionalName: "Ana"},
		{Date: "2026-10-19", StartTime: "10:00", ProfessionalID: bia, ProfessionalName: "Bia"},
		{Date: "2026-10-19", StartTime: "09:00", ProfessionalID: ana, ProfessionalName: "Ana"},
	}
	got := GroupByProfessional(matches)
	require.Len(t, got, 2)
	assert.Equal(t, ana, got[0].ProfessionalID)
	assert.Equal(t, "2026-10-19", got[0].Slots[0].Date)
	assert.Equal(t, "2026-10-20", got[0].Slots[1].Date)
	assert.Equal(t, bia, got[1].ProfessionalID)
}
