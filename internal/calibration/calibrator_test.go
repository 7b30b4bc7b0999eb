package calibration

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sgCalibration = `Black, 1.000, 2.001
Black, 1.001, 2.002
Black, 1.002, 2.003
BLACK, 1.003, 2.004
Black, 1, Many
Black, Few, 2.005

"Ferment 1 red", 1.000, 3.010
"Ferment 1 red", 1.001, 3.011
"Ferment 1 red", 1.002, 3.012
"Ferment 1 red", 1.003, 3.013
"Ferment 1 red", 1.004, 3.014
`

const tempCalibration = `Black, 39,40
Black, 46,48
Black, 54,55
Black, 60,62
Black, 68,70
Black, 76,76
`

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprint(append([]any{msg}, args...)...))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_SpecificGravity(t *testing.T) {
	logger := &recordingLogger{}
	c, err := Load(writeFile(t, "SGCal.csv", sgCalibration), logger)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	keys := c.Keys()
	if strings.Join(keys, ",") != "black,ferment 1 red" {
		t.Errorf("Keys() = %v, want [black ferment 1 red]", keys)
	}
	if curve, ok := c.Curve("Black"); !ok || curve.Degree() != 3 {
		t.Errorf("Curve(Black) degree = %v, ok=%v; want 3", curve, ok)
	}
	if len(logger.warnings) != 2 {
		t.Errorf("warnings = %d (%v), want 2 for the non-numeric lines", len(logger.warnings), logger.warnings)
	}

	black, ok := c.Value([]string{"Dummy", "Black"}, 1.002, SGDigitsStandard)
	if !ok || black != 2.003 {
		t.Errorf("Value(Dummy, Black) = %v, %v; want 2.003", black, ok)
	}

	red, ok := c.Value([]string{"ferment 1 RED"}, 1.002, SGDigitsStandard)
	if !ok || red != 3.012 {
		t.Errorf("Value(Ferment 1 red) = %v, %v; want 3.012", red, ok)
	}

	if _, ok := c.Value([]string{"Dummy"}, 1.002, SGDigitsStandard); ok {
		t.Error("Value(Dummy) should not be calibrated")
	}
}

func TestLoad_Temperature(t *testing.T) {
	c, err := Load(writeFile(t, "tempCal.csv", tempCalibration), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	v, ok := c.Value([]string{"DD7F97FC141E", "black"}, 68, TempDigitsStandard)
	if !ok {
		t.Fatal("Value(black) should be calibrated")
	}
	if math.Abs(v-70) > 1 {
		t.Errorf("Value(black, 68) = %v, want about 70", v)
	}
	if v != math.Trunc(v) {
		t.Errorf("Value rounded to 0 digits = %v, want whole number", v)
	}
}

func TestValue_FirstMatchingKeyWins(t *testing.T) {
	c := New(nil)
	err := c.Read(strings.NewReader("mac1, 1, 10\nmac1, 2, 20\nname, 1, 100\nname, 2, 200\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	v, ok := c.Value([]string{"MAC1", "name"}, 1.5, 1)
	if !ok || v != 15 {
		t.Errorf("Value(mac first) = %v, %v; want 15", v, ok)
	}
	v, ok = c.Value([]string{"other", "NAME"}, 1.5, 1)
	if !ok || v != 150 {
		t.Errorf("Value(name fallback) = %v, %v; want 150", v, ok)
	}
}

func TestRead_SkipsUnfittableKeys(t *testing.T) {
	logger := &recordingLogger{}
	c := New(logger)
	if err := c.Read(strings.NewReader("single, 1.000, 1.001\nshort line\n")); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Keys() = %v, want none", c.Keys())
	}
	if len(logger.warnings) != 2 {
		t.Errorf("warnings = %v, want one for the short line and one for the single point", logger.warnings)
	}
}

func TestLoad_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "SGCal.csv")

	c, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Keys() = %v, want none", c.Keys())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("calibration file not created: %v", err)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
}

func TestRead_NonFiniteValuesSkipped(t *testing.T) {
	logger := &recordingLogger{}
	c := New(logger)
	input := "red, 60, 61\nred, 70, 71\nred, nan, 80\nred, 75, Inf\nred, -inf, 50\nred, 80, 81\n"
	if err := c.Read(strings.NewReader(input)); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(logger.warnings) != 3 {
		t.Errorf("warnings = %d (%v), want 3 for the non-finite lines", len(logger.warnings), logger.warnings)
	}
	got, ok := c.Value([]string{"red"}, 65, TempDigitsStandard)
	if !ok {
		t.Fatal("Value(red) not calibrated")
	}
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("Value(red) = %v, want a finite value", got)
	}
	if got != 66 {
		t.Errorf("Value(red, 65) = %v, want 66", got)
	}
}
