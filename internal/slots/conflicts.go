package slots

import (
	"fmt"

	"github.com/google/uuid"
)

// BookingKey is the composite identity of a booked position.
type BookingKey struct {
	ProfessionalID uuid.UUID
	Date           string
	Time           string
}

func (k BookingKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.ProfessionalID, k.Date, k.Time)
}

// BookingSet holds the existing bookings inside a horizon.
type BookingSet map[BookingKey]struct{}

func NewBookingSet(keys ...BookingKey) BookingSet {
	set := make(BookingSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (b BookingSet) Has(k BookingKey) bool {
	_, ok := b[k]
	return ok
}

type windowDay struct {
	window uuid.UUID
	date   string
}

// ResolveConflicts drops every candidate whose key is already booked. Surviving slots get
// Booked set to the number of bookings their window already holds on that date.
func ResolveConflicts(candidates []Slot, existing BookingSet) []Slot {
	load := map[windowDay]int{}
	for _, c := range candidates {
		if existing.Has(c.Key()) {
			load[windowDay{c.WindowID, c.Date}]++
		}
	}

	out := make([]Slot, 0, len(candidates))
	for _, c := range candidates {
		if existing.Has(c.Key()) {
			continue
		}
		c.Booked = load[windowDay{c.WindowID, c.Date}]
		if c.Booked >= c.Capacity {
			continue
		}
		out = append(out, c)
	}
	return out
}
