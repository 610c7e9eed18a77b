// Package keyspec parses keyframe keep/drop specifications and resolves
// them into per-keyframe retain decisions.
//
// The text format is a comma-separated list of non-negative integers
// and inclusive ranges, e.g. "0,5,10-15". Indices are keyframe ordinals
// counted among keyframes only, starting at 0.
package keyspec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InvalidSpecError reports a malformed keep/drop specification token.
type InvalidSpecError struct {
	Token  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid keyframe spec token %q: %s", e.Token, e.Reason)
}

// IndexSet is a resolved set of keyframe ordinals.
type IndexSet map[int]struct{}

// ParseSet parses keyframe spec text into an index set. An empty string
// yields an empty set.
func ParseSet(spec string) (IndexSet, error) {
	set := make(IndexSet)
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if a, b, ok := strings.Cut(token, "-"); ok {
			start, err := parseIndex(token, a)
			if err != nil {
				return nil, err
			}
			end, err := parseIndex(token, b)
			if err != nil {
				return nil, err
			}
			if end < start {
				return nil, &InvalidSpecError{Token: token, Reason: "range end before start"}
			}
			for i := start; i <= end; i++ {
				set[i] = struct{}{}
			}
			continue
		}
		idx, err := parseIndex(token, token)
		if err != nil {
			return nil, err
		}
		set[idx] = struct{}{}
	}
	return set, nil
}

func parseIndex(token, field string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, &InvalidSpecError{Token: token, Reason: "not a non-negative integer"}
	}
	if idx < 0 {
		return 0, &InvalidSpecError{Token: token, Reason: "not a non-negative integer"}
	}
	return idx, nil
}

// Contains reports whether the set holds the given ordinal.
func (s IndexSet) Contains(i int) bool {
	_, ok := s[i]
	return ok
}

// Format renders the set in canonical spec text: ascending order with
// consecutive runs collapsed into inclusive ranges. The output
// round-trips through ParseSet to an identical set.
func (s IndexSet) Format() string {
	if len(s) == 0 {
		return ""
	}
	indices := make([]int, 0, len(s))
	for i := range s {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var parts []string
	for i := 0; i < len(indices); {
		j := i
		for j+1 < len(indices) && indices[j+1] == indices[j]+1 {
			j++
		}
		if j > i {
			parts = append(parts, fmt.Sprintf("%d-%d", indices[i], indices[j]))
		} else {
			parts = append(parts, strconv.Itoa(indices[i]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// Resolver turns keep/drop sets and a keep-first-N count into a single
// retain decision per keyframe ordinal.
//
// Precedence, first match wins: explicit drop, explicit keep,
// ordinal within the first N, default drop. An index named in both the
// keep and drop sets is dropped: removal is the destructive,
// glitch-producing action and outranks preservation intent.
type Resolver struct {
	keep      IndexSet
	drop      IndexSet
	keepFirst int
}

// NewResolver builds a resolver from already-parsed sets. Nil sets are
// treated as empty.
func NewResolver(keep, drop IndexSet, keepFirst int) *Resolver {
	return &Resolver{keep: keep, drop: drop, keepFirst: keepFirst}
}

// Parse builds a resolver straight from spec text.
func Parse(keepSpec, dropSpec string, keepFirst int) (*Resolver, error) {
	keep, err := ParseSet(keepSpec)
	if err != nil {
		return nil, err
	}
	drop, err := ParseSet(dropSpec)
	if err != nil {
		return nil, err
	}
	return NewResolver(keep, drop, keepFirst), nil
}

// Retain decides whether the keyframe with the given ordinal (0-based,
// counted among keyframes only) stays in the output.
func (r *Resolver) Retain(ordinal int) bool {
	switch {
	case r.drop.Contains(ordinal):
		return false
	case r.keep.Contains(ordinal):
		return true
	case ordinal < r.keepFirst:
		return true
	default:
		return false
	}
}
