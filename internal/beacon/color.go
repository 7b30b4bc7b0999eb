package beacon

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Color is the Tilt colour identified by the beacon UUID.
type Color string

// Tilt colours in UUID order.
const (
	Red    Color = "Red"
	Green  Color = "Green"
	Black  Color = "Black"
	Purple Color = "Purple"
	Orange Color = "Orange"
	Blue   Color = "Blue"
	Yellow Color = "Yellow"
	Pink   Color = "Pink"
)

// Colors lists every Tilt colour in UUID order.
var Colors = []Color{Red, Green, Black, Purple, Orange, Blue, Yellow, Pink}

// colorUUIDs maps each colour to its proximity UUID.
var colorUUIDs = map[Color]uuid.UUID{
	Red:    uuid.MustParse("a495bb10-c5b1-4b44-b512-1370f02d74de"),
	Green:  uuid.MustParse("a495bb20-c5b1-4b44-b512-1370f02d74de"),
	Black:  uuid.MustParse("a495bb30-c5b1-4b44-b512-1370f02d74de"),
	Purple: uuid.MustParse("a495bb40-c5b1-4b44-b512-1370f02d74de"),
	Orange: uuid.MustParse("a495bb50-c5b1-4b44-b512-1370f02d74de"),
	Blue:   uuid.MustParse("a495bb60-c5b1-4b44-b512-1370f02d74de"),
	Yellow: uuid.MustParse("a495bb70-c5b1-4b44-b512-1370f02d74de"),
	Pink:   uuid.MustParse("a495bb80-c5b1-4b44-b512-1370f02d74de"),
}

var uuidColors = func() map[uuid.UUID]Color {
	m := make(map[uuid.UUID]Color, len(colorUUIDs))
	for c, id := range colorUUIDs {
		m[id] = c
	}
	return m
}()

// ColorForUUID returns the colour for a beacon UUID string.
// Both the dashed and the bare 32 hex digit forms are accepted, in any case.
func ColorForUUID(s string) (Color, bool) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	c, ok := uuidColors[id]
	return c, ok
}

// UUID returns the proximity UUID of the colour in canonical dashed form.
func (c Color) UUID() (string, error) {
	id, ok := colorUUIDs[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColor, string(c))
	}
	return id.String(), nil
}

// ParseColor resolves a colour name case-insensitively.
func ParseColor(name string) (Color, error) {
	for _, c := range Colors {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

// String implements fmt.Stringer.
func (c Color) String() string { return string(c) }
