package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Granularity is the fixed slot increment.
const Granularity = 30 * time.Minute

type Modality string

const (
	ModalityOnline     Modality = "online"
	ModalityPresencial Modality = "presencial"
	ModalityBoth       Modality = "ambos"
)

// ParseModality accepts the stored Portuguese values and their English aliases.
func ParseModality(raw string) (Modality, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "online":
		return ModalityOnline, true
	case "presencial", "in-person", "in_person":
		return ModalityPresencial, true
	case "ambos", "both":
		return ModalityBoth, true
	}
	return "", false
}

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

var ErrMalformedWindow = errors.New("malformed availability window")

// Window is a professional's recurring weekly block. Times are kept as stored so
// legacy rows that do not parse can be detected and skipped instead of rejected on read.
type Window struct {
	ID             uuid.UUID      `json:"id"`
	ProfessionalID uuid.UUID      `json:"professionalId"`
	Weekdays       []time.Weekday `json:"weekdays"`
	StartTime      string         `json:"startTime"`
	EndTime        string         `json:"endTime"`
	Modality       Modality       `json:"modality"`
	Status         Status         `json:"status"`
}

// Parsed is a Window whose times are validated and converted to minutes since midnight.
type Parsed struct {
	Window
	StartMinute int
	EndMinute   int
}

// Capacity is the number of slot increments the window offers on one date.
func (p Parsed) Capacity() int {
	return (p.EndMinute - p.StartMinute) / int(Granularity/time.Minute)
}

// Covers reports whether the window recurs on the given weekday.
func (p Parsed) Covers(day time.Weekday) bool {
	for _, d := range p.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func (w Window) Parse() (Parsed, error) {
	if len(w.Weekdays) == 0 {
		return Parsed{}, fmt.Errorf("%w: no weekdays", ErrMalformedWindow)
	}
	for _, d := range w.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return Parsed{}, fmt.Errorf("%w: weekday %d out of range", ErrMalformedWindow, d)
		}
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: start %q: %v", ErrMalformedWindow, w.StartTime, err)
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: end %q: %v", ErrMalformedWindow, w.EndTime, err)
	}
	if start >= end {
		return Parsed{}, fmt.Errorf("%w: start %s is not before end %s", ErrMalformedWindow, w.StartTime, w.EndTime)
	}
	step := int(Granularity / time.Minute)
	if (end-start)%step != 0 {
		return Parsed{}, fmt.Errorf("%w: duration %d min is not a multiple of %d", ErrMalformedWindow, end-start, step)
	}
	mod, ok := ParseModality(string(w.Modality))
	if !ok {
		return Parsed{}, fmt.Errorf("%w: modality %q", ErrMalformedWindow, w.Modality)
	}

	p := Parsed{Window: w, StartMinute: start, EndMinute: end}
	p.Modality = mod
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	return p, nil
}

// Validate is the fail-fast check applied before windows are written.
func Validate(windows []Window) error {
	for i, w := range windows {
		if _, err := w.Parse(); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
		if w.Status != "" && w.Status != StatusAvailable && w.Status != StatusUnavailable {
			return fmt.Errorf("window %d: %w: status %q", i, ErrMalformedWindow, w.Status)
		}
	}
	return nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, errors.New("hour out of range")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("minute out of range")
	}
	if h == 24 && m != 0 {
		return 0, errors.New("hour out of range")
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ProfessionalWindows groups windows for oversight views.
type ProfessionalWindows struct {
	ProfessionalID   uuid.UUID `json:"professionalId"`
	ProfessionalName string    `json:"professionalName"`
	Windows          []Window  `json:"windows"`
}
