package slots

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/metrics"
)

// DateLayout is the civil date format used for slot and booking dates.
const DateLayout = "2006-01-02"

// Slot is one dated 30-minute instance of an availability window. Never stored.
type Slot struct {
	Date             string                `json:"date"`
	StartTime        string                `json:"startTime"`
	ProfessionalID   uuid.UUID             `json:"professionalId"`
	ProfessionalName string                `json:"professionalName,omitempty"`
	WindowID         uuid.UUID             `json:"windowId"`
	Modality         availability.Modality `json:"modality"`
	Status           availability.Status   `json:"status"`
	Capacity         int                   `json:"capacity"`
	Booked           int                   `json:"booked"`
	Weekday          time.Weekday          `json:"weekday"`
}

// Key identifies the booking position this slot occupies.
func (s Slot) Key() BookingKey {
	return BookingKey{ProfessionalID: s.ProfessionalID, Date: s.Date, Time: s.StartTime}
}

// EndTime is the implicit end of the slot.
func (s Slot) EndTime() string {
	m, err := availability.ParseClock(s.StartTime)
	if err != nil {
		return ""
	}
	return availability.FormatClock(m + int(availability.Granularity/time.Minute))
}

// Expander turns recurring windows into dated candidate slots.
type Expander struct {
	logger  *logging.Logger
	metrics *metrics.Scheduling
}

func NewExpander(logger *logging.Logger, m *metrics.Scheduling) *Expander {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Expander{logger: logger, metrics: m}
}

// Expand emits one Slot per increment for every window that recurs on each of the
// horizonDays calendar days after today. today itself is excluded. Malformed windows
// are skipped with a warning so one bad row cannot hide everybody else's slots.
func (e *Expander) Expand(group availability.ProfessionalWindows, today time.Time, horizonDays int) []Slot {
	parsed := make([]availability.Parsed, 0, len(group.Windows))
	for _, w := range group.Windows {
		p, err := w.Parse()
		if err != nil {
			e.logger.Warn("skipping malformed availability window",
				"professional_id", group.ProfessionalID.String(),
				"window_id", w.ID.String(),
				"error", err.Error(),
			)
			e.metrics.ObserveSkippedWindow()
			continue
		}
		parsed = append(parsed, p)
	}

	step := int(availability.Granularity / time.Minute)
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	var out []Slot
	for i := 1; i <= horizonDays; i++ {
		day := base.AddDate(0, 0, i)
		date := day.Format(DateLayout)
		for _, p := range parsed {
			if !p.Covers(day.Weekday()) {
				continue
			}
			capacity := p.Capacity()
			for m := p.StartMinute; m+step <= p.EndMinute; m += step {
				out = append(out, Slot{
					Date:             date,
					StartTime:        availability.FormatClock(m),
					ProfessionalID:   group.ProfessionalID,
					ProfessionalName: group.ProfessionalName,
					WindowID:         p.ID,
					Modality:         p.Modality,
					Status:           p.Status,
					Capacity:         capacity,
					Weekday:          day.Weekday(),
				})
			}
		}
	}
	return out
}

// ExpandAll runs Expand for every professional group.
func (e *Expander) ExpandAll(groups []availability.ProfessionalWindows, today time.Time, horizonDays int) []Slot {
	var out []Slot
	for _, g := range groups {
		out = append(out, e.Expand(g, today, horizonDays)...)
	}
	return out
}

// SortChronologically orders slots by date, time, then professional.
func SortChronologically(s []Slot) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Date != s[j].Date {
			return s[i].Date < s[j].Date
		}
		if s[i].StartTime != s[j].StartTime {
			return s[i].StartTime < s[j].StartTime
		}
		return s[i].ProfessionalName < s[j].ProfessionalName
	})
}
