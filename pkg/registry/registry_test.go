package registry_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/caesar/pkg/registry"
)

func TestLookupRegistered(t *testing.T) {
	r := registry.New[func() string]("extractor")
	r.Register("survey", func() string { return "survey" })

	fn, err := r.Lookup("survey")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if fn() != "survey" {
		t.Errorf("got %s, want survey", fn())
	}
}

func TestLookupUnknown(t *testing.T) {
	r := registry.New[int]("reducer")

	_, err := r.Lookup("nope")
	if !errors.Is(err, registry.ErrUnknownTag) {
		t.Fatalf("err: got %v, want ErrUnknownTag", err)
	}
	if !strings.Contains(err.Error(), `reducer "nope"`) {
		t.Errorf("error should name the kind and tag: %v", err)
	}
}

func TestTagsSorted(t *testing.T) {
	r := registry.New[int]("operator")
	r.Register("lte", 1)
	r.Register("and", 2)
	r.Register("gte", 3)

	if got := r.Tags(); !slices.Equal(got, []string{"and", "gte", "lte"}) {
		t.Errorf("Tags() = %v", got)
	}
}
