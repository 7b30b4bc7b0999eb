package devices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NameOverride is one explicit MAC to name assignment.
type NameOverride struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

// ParseNameOverrides decodes a JSON object of MAC to name pairs.
//
// Entries keep the order they have in the payload, since overrides are
// applied in that order and later entries may depend on earlier ones.
// Non-string values are kept in their JSON text form and fail validation later.
func ParseNameOverrides(payload []byte) ([]NameOverride, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverrides, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrInvalidOverrides
	}

	var out []NameOverride
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOverrides, err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOverrides, err)
		}

		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			name = strings.TrimSpace(string(raw))
		}
		out = append(out, NameOverride{MAC: key, Name: name})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverrides, err)
	}
	return out, nil
}
