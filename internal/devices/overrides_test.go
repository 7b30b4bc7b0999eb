package devices

import (
	"errors"
	"testing"
)

func TestParseNameOverrides_KeepsOrder(t *testing.T) {
	payload := []byte(`{"DD7F97FC141E": "Stout", "AA7F97FC141E": "Black", "BB7F97FC141E": 42}`)

	got, err := ParseNameOverrides(payload)
	if err != nil {
		t.Fatalf("ParseNameOverrides() error = %v", err)
	}

	want := []NameOverride{
		{"DD7F97FC141E", "Stout"},
		{"AA7F97FC141E", "Black"},
		{"BB7F97FC141E", "42"},
	}
	if len(got) != len(want) {
		t.Fatalf("ParseNameOverrides() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("override[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseNameOverrides_NonStringValuesFailValidation(t *testing.T) {
	got, err := ParseNameOverrides([]byte(`{"DD7F97FC141E": {"nested": true}}`))
	if err != nil {
		t.Fatalf("ParseNameOverrides() error = %v", err)
	}
	if len(got) != 1 || ValidName(got[0].Name) {
		t.Errorf("ParseNameOverrides() = %+v, want one entry with an invalid name", got)
	}
}

func TestParseNameOverrides_Errors(t *testing.T) {
	for _, payload := range []string{``, `[]`, `"names"`, `{"A": }`, `{"A": "b"`} {
		if _, err := ParseNameOverrides([]byte(payload)); !errors.Is(err, ErrInvalidOverrides) {
			t.Errorf("ParseNameOverrides(%q) error = %v, want ErrInvalidOverrides", payload, err)
		}
	}
}

func TestParseNameOverrides_Empty(t *testing.T) {
	got, err := ParseNameOverrides([]byte(`{}`))
	if err != nil || len(got) != 0 {
		t.Errorf("ParseNameOverrides({}) = %+v, %v; want empty", got, err)
	}
}
