package beacon

import (
	"errors"
	"fmt"
	"testing"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprint(append([]any{msg}, args...)...))
}

const redUUID = "a495bb10-c5b1-4b44-b512-1370f02d74de"

func TestDecoder_Decode(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		want    Reading
		wantOK  bool
		warning bool
	}{
		{
			name:   "standard reading",
			event:  Event{MAC: "AA:BB:CC:DD:EE:FF", UUID: redUUID, Major: 68, Minor: 1050},
			want:   Reading{Color: Red, Variant: Standard, TemperatureF: 68, SpecificGravity: 1.05},
			wantOK: true,
		},
		{
			name:   "pro reading",
			event:  Event{UUID: "a495bb30-c5b1-4b44-b512-1370f02d74de", Major: 685, Minor: 10500},
			want:   Reading{Color: Black, Variant: Pro, TemperatureF: 68.5, SpecificGravity: 1.05},
			wantOK: true,
		},
		{
			name:   "minor 6000 is pro",
			event:  Event{UUID: redUUID, Major: 680, Minor: 6000},
			want:   Reading{Color: Red, Variant: Pro, TemperatureF: 68, SpecificGravity: 0.6},
			wantOK: true,
		},
		{
			name:    "minor 5000 is still standard and out of bounds",
			event:   Event{UUID: redUUID, Major: 68, Minor: 5000},
			wantOK:  false,
			warning: true,
		},
		{
			name:   "bare uppercase uuid",
			event:  Event{UUID: "A495BB80C5B14B44B5121370F02D74DE", Major: 70, Minor: 1000},
			want:   Reading{Color: Pink, Variant: Standard, TemperatureF: 70, SpecificGravity: 1},
			wantOK: true,
		},
		{
			name:   "unknown uuid is dropped silently",
			event:  Event{UUID: "e2c56db5-dffb-48d2-b060-d0f5a71096e0", Major: 68, Minor: 1050},
			wantOK: false,
		},
		{
			name:   "garbage uuid is dropped silently",
			event:  Event{UUID: "not-a-uuid", Major: 68, Minor: 1050},
			wantOK: false,
		},
		{
			name:    "below lower bound",
			event:   Event{UUID: redUUID, Major: 68, Minor: 400},
			wantOK:  false,
			warning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			d := NewDecoder(DefaultBounds)
			d.SetLogger(logger)

			got, ok := d.Decode(tt.event)
			if ok != tt.wantOK {
				t.Fatalf("Decode() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
			if tt.warning != (len(logger.warnings) > 0) {
				t.Errorf("warnings = %v, want warning=%v", logger.warnings, tt.warning)
			}
		})
	}
}

func TestDecoder_BoundsAreInclusive(t *testing.T) {
	d := NewDecoder(Bounds{Lower: 1.0, Upper: 1.1})

	for _, minor := range []uint16{1000, 1100} {
		if _, ok := d.Decode(Event{UUID: redUUID, Major: 60, Minor: minor}); !ok {
			t.Errorf("Decode(minor=%d) rejected a value on the bound", minor)
		}
	}
	if _, ok := d.Decode(Event{UUID: redUUID, Major: 60, Minor: 1101}); ok {
		t.Error("Decode(minor=1101) accepted a value above the bound")
	}
}

func TestVariantOf(t *testing.T) {
	if VariantOf(6000) != Pro {
		t.Error("VariantOf(6000) should be Pro")
	}
	if VariantOf(1050) != Standard {
		t.Error("VariantOf(1050) should be Standard")
	}
	if VariantOf(5000) != Standard {
		t.Error("VariantOf(5000) should be Standard")
	}
}

func TestColorForUUID_AllColors(t *testing.T) {
	for i, c := range Colors {
		id := fmt.Sprintf("a495bb%d0-c5b1-4b44-b512-1370f02d74de", i+1)
		got, ok := ColorForUUID(id)
		if !ok || got != c {
			t.Errorf("ColorForUUID(%s) = %q, %v; want %q", id, got, ok, c)
		}
		back, err := c.UUID()
		if err != nil || back != id {
			t.Errorf("%s.UUID() = %q, %v; want %q", c, back, err, id)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" black ")
	if err != nil || c != Black {
		t.Errorf("ParseColor(black) = %q, %v", c, err)
	}
	if _, err := ParseColor("Magenta"); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("ParseColor(Magenta) error = %v, want ErrUnknownColor", err)
	}
	if _, err := Color("Magenta").UUID(); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("Magenta.UUID() error = %v, want ErrUnknownColor", err)
	}
}
