package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"9:30", 570, false},
		{"24:00", 1440, false},
		{"24:30", 0, true},
		{"09:5", 0, true},
		{"nine", 0, true},
		{"", 0, true},
		{"12:60", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClock(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowParse(t *testing.T) {
	base := Window{Weekdays: []time.Weekday{time.Monday}, StartTime: "09:00", EndTime: "10:00", Modality: "online"}

	p, err := base.Parse()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Capacity())
	assert.Equal(t, StatusAvailable, p.Status)
	assert.True(t, p.Covers(time.Monday))
	assert.False(t, p.Covers(time.Tuesday))

	cases := map[string]func(w *Window){
		"no weekdays":      func(w *Window) { w.Weekdays = nil },
		"bad start":        func(w *Window) { w.StartTime = "9h" },
		"bad end":          func(w *Window) { w.EndTime = "" },
		"start after end":  func(w *Window) { w.StartTime, w.EndTime = "11:00", "10:00" },
		"equal":            func(w *Window) { w.EndTime = "09:00" },
		"not 30 multiple":  func(w *Window) { w.EndTime = "09:45" },
		"unknown modality": func(w *Window) { w.Modality = "telepathy" },
		"weekday range":    func(w *Window) { w.Weekdays = []time.Weekday{9} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			w := base
			mutate(&w)
			_, err := w.Parse()
			assert.True(t, errors.Is(err, ErrMalformedWindow), "got %v", err)
		})
	}
}

func TestParseModalityAliases(t *testing.T) {
	for raw, want := range map[string]Modality{
		"online": ModalityOnline, "Presencial": ModalityPresencial, "in-person": ModalityPresencial,
		"both": ModalityBoth, "AMBOS": ModalityBoth,
	} {
		got, ok := ParseModality(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseModality("")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	ok := Window{Weekdays: []time.Weekday{time.Friday}, StartTime: "14:00", EndTime: "16:00", Modality: ModalityBoth}
	require.NoError(t, Validate([]Window{ok}))

	badStatus := ok
	badStatus.Status = "maybe"
	assert.ErrorIs(t, Validate([]Window{ok, badStatus}), ErrMalformedWindow)
}
