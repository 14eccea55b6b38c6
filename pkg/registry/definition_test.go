package registry_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/JaimeStill/caesar/pkg/registry"
)

func TestDefinitionsPreserveObjectOrder(t *testing.T) {
	var defs registry.Definitions
	body := `{"z": {"type": "survey", "task_key": "T0"}, "a": {"type": "question"}, "m": {"type": "blank"}}`
	if err := json.Unmarshal([]byte(body), &defs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"z", "a", "m"}
	if len(defs) != len(want) {
		t.Fatalf("len: got %d, want %d", len(defs), len(want))
	}
	for i, key := range want {
		if defs[i].Key != key {
			t.Errorf("defs[%d].Key: got %s, want %s", i, defs[i].Key, key)
		}
	}
	if defs[0].Type() != "survey" || defs[0].Config["task_key"] != "T0" {
		t.Errorf("defs[0]: got %+v", defs[0])
	}
}

func TestDefinitionsRoundTripAsArray(t *testing.T) {
	defs := registry.Definitions{
		{Key: "s", Config: map[string]any{"type": "stats"}},
		{Key: "c", Config: map[string]any{"type": "count"}},
	}

	data, err := json.Marshal(defs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if data[0] != '[' {
		t.Fatalf("expected array encoding, got %s", data)
	}

	var back registry.Definitions
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 2 || back[0].Key != "s" || back[1].Type() != "count" {
		t.Errorf("round trip: got %+v", back)
	}
}

func TestDefinitionsEmpty(t *testing.T) {
	for _, body := range []string{`null`, `{}`, `[]`} {
		var defs registry.Definitions
		if err := json.Unmarshal([]byte(body), &defs); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if defs == nil || len(defs) != 0 {
			t.Errorf("%s: got %#v, want empty non-nil", body, defs)
		}
	}

	data, _ := json.Marshal(registry.Definitions(nil))
	if string(data) != "[]" {
		t.Errorf("nil marshal: got %s, want []", data)
	}
}

func TestDefinitionsMalformed(t *testing.T) {
	for _, body := range []string{`"survey"`, `[{"config": {}}]`, `{"s": 3}`} {
		var defs registry.Definitions
		err := json.Unmarshal([]byte(body), &defs)
		if !errors.Is(err, registry.ErrMalformedDefinition) {
			t.Errorf("%s: err %v, want ErrMalformedDefinition", body, err)
		}
	}
}
