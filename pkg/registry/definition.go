package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDefinition is returned when a definition list cannot be decoded.
var ErrMalformedDefinition = errors.New("malformed definition")

// Definition is one keyed strategy configuration. Config["type"] selects the
// constructor; the remaining fields are strategy options.
type Definition struct {
	Key    string         `json:"key"`
	Config map[string]any `json:"config"`
}

// Type returns the definition's type tag, or "" when absent.
func (d Definition) Type() string {
	t, _ := d.Config["type"].(string)
	return t
}

// Definitions is an ordered list of keyed definitions.
//
// It decodes from either a JSON array of {"key", "config"} objects or a JSON
// object mapping key to config, preserving the object's key order. It always
// encodes as an array so the order survives storage.
type Definitions []Definition

// MarshalJSON encodes nil as an empty array.
func (d Definitions) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Definition(d))
}

func (d *Definitions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*d = Definitions{}
		return nil
	case data[0] == '[':
		var list []Definition
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
		}
		for i, def := range list {
			if def.Key == "" {
				return fmt.Errorf("%w: entry %d has no key", ErrMalformedDefinition, i)
			}
		}
		*d = list
		return nil
	case data[0] == '{':
		list, err := decodeOrderedObject(data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
		}
		*d = list
		return nil
	default:
		return fmt.Errorf("%w: expected object or array", ErrMalformedDefinition)
	}
}

func decodeOrderedObject(data []byte) (Definitions, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	list := Definitions{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)

		var config map[string]any
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		list = append(list, Definition{Key: key, Config: config})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}
