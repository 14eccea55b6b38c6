// Package filters de-duplicates a subject's extract history before reduction.
//
// Extracts are grouped by the classification that produced them. A
// repeatedness policy then decides which groups survive when one user
// classified the same subject more than once. Anonymous groups are never
// considered repeats.
package filters

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/caesar/internal/extracts"
)

// ErrUnknownPolicy is returned for a repeated_classifications value outside the known set.
var ErrUnknownPolicy = errors.New("unknown repeated_classifications policy")

// Policy selects which of a user's repeated classifications are kept.
type Policy string

const (
	KeepAll   Policy = "keep_all"
	KeepFirst Policy = "keep_first"
	KeepLast  Policy = "keep_last"
)

// ParsePolicy validates s as a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case KeepAll, KeepFirst, KeepLast:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Group is the set of extracts produced from one classification.
type Group struct {
	ClassificationID int64
	UserID           *int64
	Extracts         []extracts.Extract
}

// GroupByClassification partitions items by classification id.
// Groups appear in order of first appearance and keep their extracts in input order.
func GroupByClassification(items []extracts.Extract) []Group {
	groups := make([]Group, 0)
	index := make(map[int64]int)

	for _, e := range items {
		i, ok := index[e.ClassificationID]
		if !ok {
			i = len(groups)
			index[e.ClassificationID] = i
			groups = append(groups, Group{
				ClassificationID: e.ClassificationID,
				UserID:           e.UserID,
			})
		}
		groups[i].Extracts = append(groups[i].Extracts, e)
	}

	return groups
}

// Flatten expands groups back into an order-preserving extract sequence.
func Flatten(groups []Group) []extracts.Extract {
	out := make([]extracts.Extract, 0)
	for _, g := range groups {
		out = append(out, g.Extracts...)
	}
	return out
}

// Repeatedness applies a Policy to grouped extracts.
type Repeatedness struct {
	Policy Policy
}

// Apply returns the surviving groups in their original relative order.
func (r Repeatedness) Apply(groups []Group) []Group {
	switch r.Policy {
	case KeepFirst:
		return keepFirst(groups)
	case KeepLast:
		return keepLast(groups)
	default:
		return groups
	}
}

// Filter groups items by classification, applies the policy, and flattens the result.
func (r Repeatedness) Filter(items []extracts.Extract) []extracts.Extract {
	if r.Policy == KeepAll || r.Policy == "" {
		return items
	}
	return Flatten(r.Apply(GroupByClassification(items)))
}

func keepFirst(groups []Group) []Group {
	seen := make(map[int64]struct{})
	kept := make([]Group, 0, len(groups))

	for _, g := range groups {
		if g.UserID == nil {
			kept = append(kept, g)
			continue
		}
		if _, dup := seen[*g.UserID]; dup {
			continue
		}
		seen[*g.UserID] = struct{}{}
		kept = append(kept, g)
	}

	return kept
}

func keepLast(groups []Group) []Group {
	reversed := make([]Group, len(groups))
	for i, g := range groups {
		reversed[len(groups)-1-i] = g
	}

	kept := keepFirst(reversed)
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
