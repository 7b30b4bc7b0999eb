package beacon

// Variant distinguishes the Tilt hardware generations.
type Variant string

const (
	// Standard devices report whole °F and SG with three decimals.
	Standard Variant = "Standard"
	// Pro devices report tenths of °F and SG with four decimals.
	Pro Variant = "Pro"
)

// proMinorThreshold separates Pro from Standard readings.
// No valid Standard SG comes close to 5.000.
const proMinorThreshold = 5000

// Event is one received advertisement, already split into iBeacon fields.
type Event struct {
	MAC     string `json:"mac"`
	UUID    string `json:"uuid"`
	Major   uint16 `json:"major"`
	Minor   uint16 `json:"minor"`
	TxPower int8   `json:"txPower"`
	RSSI    int    `json:"rssi"`
}

// Reading is the scaled, bounds-checked content of a Tilt advertisement.
type Reading struct {
	Color           Color
	Variant         Variant
	TemperatureF    float64
	SpecificGravity float64
}

// Bounds limits the specific gravity values accepted as plausible.
type Bounds struct {
	Lower float64
	Upper float64
}

// DefaultBounds matches the range a Tilt can physically report.
var DefaultBounds = Bounds{Lower: 0.5, Upper: 2.0}

// Contains reports whether sg lies within the inclusive range.
func (b Bounds) Contains(sg float64) bool {
	return sg >= b.Lower && sg <= b.Upper
}

// Logger is the logging interface used by the decoder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Decoder turns Events into Readings.
type Decoder struct {
	bounds Bounds
	logger Logger
}

// NewDecoder creates a decoder with the given SG bounds.
func NewDecoder(bounds Bounds) *Decoder {
	return &Decoder{bounds: bounds, logger: noopLogger{}}
}

// SetLogger sets the logger used for discard warnings.
func (d *Decoder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// Bounds returns the configured SG bounds.
func (d *Decoder) Bounds() Bounds { return d.bounds }

// VariantOf classifies a raw minor value.
func VariantOf(minor uint16) Variant {
	if minor > proMinorThreshold {
		return Pro
	}
	return Standard
}

// Decode converts an event into a reading.
//
// The second return value is false when the event must be discarded:
// the UUID is not a Tilt colour (silently, other iBeacons are common), or
// the specific gravity falls outside the configured bounds (with a warning).
func (d *Decoder) Decode(evt Event) (Reading, bool) {
	color, ok := ColorForUUID(evt.UUID)
	if !ok {
		return Reading{}, false
	}

	r := Reading{
		Color:   color,
		Variant: VariantOf(evt.Minor),
	}
	if r.Variant == Pro {
		r.TemperatureF = float64(evt.Major) / 10
		r.SpecificGravity = float64(evt.Minor) / 10000
	} else {
		r.TemperatureF = float64(evt.Major)
		r.SpecificGravity = float64(evt.Minor) / 1000
	}

	if !d.bounds.Contains(r.SpecificGravity) {
		d.logger.Warn("discarding Tilt reading with out-of-bounds specific gravity",
			"color", string(color),
			"mac", evt.MAC,
			"sg", r.SpecificGravity,
			"lower", d.bounds.Lower,
			"upper", d.bounds.Upper,
		)
		return Reading{}, false
	}

	return r, true
}
