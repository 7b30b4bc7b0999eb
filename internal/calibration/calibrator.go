package calibration

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Digits used when rounding calibrated values.
const (
	TempDigitsStandard = 0
	TempDigitsPro      = 1
	SGDigitsStandard   = 3
	SGDigitsPro        = 4
)

// Logger is the logging interface used by the calibrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Calibrator holds one fitted curve per device key (MAC or name, lowercased).
//
// A Calibrator is read-only after loading and safe for concurrent use.
type Calibrator struct {
	path   string
	mu     sync.RWMutex
	curves map[string]*Curve
	logger Logger
}

// New returns an empty calibrator. Use Load or Read to populate it.
func New(logger Logger) *Calibrator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Calibrator{curves: make(map[string]*Curve), logger: logger}
}

// Load reads calibration points from path, creating an empty file when absent.
//
// Each line is `key, raw, calibrated`. Keys may be quoted and are matched
// case-insensitively. Lines with a non-numeric value are skipped with a warning.
func Load(path string, logger Logger) (*Calibrator, error) {
	c := New(logger)
	c.path = path

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating calibration directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o666) //nolint:gosec // shared with other brewery tools
	if err != nil {
		return nil, fmt.Errorf("opening calibration file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	if err := c.Read(f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c.logger.Info("calibration values loaded", "path", path, "keys", c.Keys())
	return c, nil
}

// Read parses calibration lines from r and replaces the fitted curves.
func (c *Calibrator) Read(r io.Reader) error {
	tables := make(map[string][]Point)
	var order []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec := csv.NewReader(strings.NewReader(line))
		rec.TrimLeadingSpace = true
		rec.LazyQuotes = true
		fields, err := rec.Read()
		if err != nil || len(fields) < 3 {
			c.logger.Warn("malformed calibration line, ignoring", "line", lineNo, "content", line)
			continue
		}

		key := strings.ToLower(strings.TrimSpace(fields[0]))
		raw, ok := parseFinite(fields[1])
		if !ok {
			c.logger.Warn("uncalibrated value not a float, ignoring line", "line", lineNo, "value", fields[1])
			continue
		}
		cal, ok := parseFinite(fields[2])
		if !ok {
			c.logger.Warn("calibrated value not a float, ignoring line", "line", lineNo, "value", fields[2])
			continue
		}

		if _, ok := tables[key]; !ok {
			order = append(order, key)
		}
		tables[key] = append(tables[key], Point{Raw: raw, Calibrated: cal})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	curves := make(map[string]*Curve, len(tables))
	for _, key := range order {
		curve, err := Fit(tables[key])
		if err != nil {
			c.logger.Warn("cannot fit calibration curve, key ignored", "key", key, "points", len(tables[key]), "error", err)
			continue
		}
		curves[key] = curve
	}

	c.mu.Lock()
	c.curves = curves
	c.mu.Unlock()
	return nil
}

// parseFinite parses a calibration value. NaN and infinities are rejected.
func parseFinite(field string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Path returns the file the calibrator was loaded from, if any.
func (c *Calibrator) Path() string { return c.path }

// Keys returns the calibrated keys in sorted order.
func (c *Calibrator) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.curves))
	for k := range c.curves {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Curve returns the fitted curve for key.
func (c *Calibrator) Curve(key string) (*Curve, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	curve, ok := c.curves[strings.ToLower(key)]
	return curve, ok
}

// Value applies the curve of the first candidate key that has one.
//
// Keys are tried in order, case-insensitively. The result is rounded to
// digits decimals. The second return value is false when no key matches.
func (c *Calibrator) Value(keys []string, raw float64, digits int) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range keys {
		if curve, ok := c.curves[strings.ToLower(k)]; ok {
			return Round(curve.Eval(raw), digits), true
		}
	}
	return 0, false
}
