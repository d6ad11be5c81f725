package matching

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

type DayClass string

const (
	Weekday DayClass = "weekday"
	Weekend DayClass = "weekend"
)

// ClassOf maps a calendar weekday to its class.
func ClassOf(d time.Weekday) DayClass {
	if d == time.Saturday || d == time.Sunday {
		return Weekend
	}
	return Weekday
}

var ErrInvalidBucket = errors.New("invalid availability bucket")

// Bucket is a patient's declared availability, e.g. "manha-semana_09:00".
type Bucket struct {
	Raw    string
	Period string
	Class  DayClass
	Time   string
	Hour   int
}

func ParseBucket(raw string) (Bucket, error) {
	left, clock, ok := strings.Cut(strings.TrimSpace(raw), "_")
	if !ok {
		return Bucket{}, fmt.Errorf("%w: %q has no time part", ErrInvalidBucket, raw)
	}
	period, class, ok := strings.Cut(left, "-")
	if !ok || period == "" {
		return Bucket{}, fmt.Errorf("%w: %q has no weekday class", ErrInvalidBucket, raw)
	}

	b := Bucket{Raw: raw, Period: strings.ToLower(period), Time: clock}
	switch strings.ToLower(class) {
	case "semana":
		b.Class = Weekday
	case "fimdesemana", "fim-de-semana", "fds":
		b.Class = Weekend
	default:
		return Bucket{}, fmt.Errorf("%w: %q unknown weekday class %q", ErrInvalidBucket, raw, class)
	}

	m, err := availability.ParseClock(clock)
	if err != nil {
		return Bucket{}, fmt.Errorf("%w: %q: %v", ErrInvalidBucket, raw, err)
	}
	b.Hour = m / 60
	return b, nil
}

// ParseBuckets parses every bucket, failing on the first bad one.
func ParseBuckets(raw []string) ([]Bucket, error) {
	out := make([]Bucket, 0, len(raw))
	for _, r := range raw {
		b, err := ParseBucket(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Need is what a patient can attend.
type Need struct {
	Modality availability.Modality
	Buckets  []Bucket
}

// ModalityCompatible treats "ambos" on either side as a wildcard; otherwise values must be equal.
func ModalityCompatible(a, b availability.Modality) bool {
	if isBoth(a) || isBoth(b) {
		return true
	}
	return strings.EqualFold(string(a), string(b))
}

func isBoth(m availability.Modality) bool {
	return strings.EqualFold(string(m), string(availability.ModalityBoth)) || strings.EqualFold(string(m), "both")
}

// SlotCompatible is the shared rule: modality matches and some bucket falls on the same
// weekday class and hour as the slot.
func SlotCompatible(need Need, s slots.Slot) bool {
	if !ModalityCompatible(need.Modality, s.Modality) {
		return false
	}
	m, err := availability.ParseClock(s.StartTime)
	if err != nil {
		return false
	}
	class := ClassOf(s.Weekday)
	for _, b := range need.Buckets {
		if b.Class == class && b.Hour == m/60 {
			return true
		}
	}
	return false
}

// MatchManual filters a professional's expanded slots for manual case routing.
// Unavailable slots never match.
func MatchManual(need Need, candidates []slots.Slot) []slots.Slot {
	var out []slots.Slot
	for _, s := range candidates {
		if s.Status == availability.StatusUnavailable {
			continue
		}
		if SlotCompatible(need, s) {
			out = append(out, s)
		}
	}
	return out
}

// MatchPublic filters open self-service slots. Input already went through ResolveConflicts.
func MatchPublic(need Need, open []slots.Slot) []slots.Slot {
	var out []slots.Slot
	for _, s := range open {
		if SlotCompatible(need, s) {
			out = append(out, s)
		}
	}
	return out
}

// ProfessionalMatches groups manual matches per professional.
type ProfessionalMatches struct {
	ProfessionalID   uuid.UUID    `json:"professionalId"`
	ProfessionalName string       `json:"professionalName"`
	Slots            []slots.Slot `json:"slots"`
}

// GroupByProfessional keeps first-seen professional order and chronological slots.
func GroupByProfessional(matches []slots.Slot) []ProfessionalMatches {
	sorted := append([]slots.Slot(nil), matches...)
	slots.SortChronologically(sorted)

	var out []ProfessionalMatches
	index := map[uuid.UUID]int{}
	for _, s := range sorted {
		i, ok := index[s.ProfessionalID]
		if !ok {
			i = len(out)
			index[s.ProfessionalID] = i
			out = append(out, ProfessionalMatches{ProfessionalID: s.ProfessionalID, ProfessionalName: s.ProfessionalName})
		}
		out[i].Slots = append(out[i].Slots, s)
	}
	return out
}
