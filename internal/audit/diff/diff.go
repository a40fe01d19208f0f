// Package diff computes field-level change sets between two opaque state
// snapshots. It is a pure function of its inputs: no schema knowledge, no side
// effects, deterministic output.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"

	"fleetaudit/internal/audit/models"
)

// Compute returns the field-level changes between before and after. The
// result is sorted by field name so identical inputs always serialize to
// identical output. A key carrying a nil value is treated as absent, so
// nil-on-both-sides produces no entry.
func Compute(before, after map[string]any) []models.ChangeDiff {
	keys := unionKeys(before, after)

	var changes []models.ChangeDiff
	for _, key := range keys {
		oldVal, hasOld := lookup(before, key)
		newVal, hasNew := lookup(after, key)

		switch {
		case hasOld && hasNew:
			if !equal(oldVal, newVal) {
				changes = append(changes, models.ChangeDiff{
					Field:      key,
					OldValue:   oldVal,
					NewValue:   newVal,
					ChangeType: models.ChangeModified,
				})
			}
		case hasNew:
			changes = append(changes, models.ChangeDiff{
				Field:      key,
				NewValue:   newVal,
				ChangeType: models.ChangeAdded,
			})
		case hasOld:
			changes = append(changes, models.ChangeDiff{
				Field:      key,
				OldValue:   oldVal,
				ChangeType: models.ChangeRemoved,
			})
		}
	}
	return changes
}

// Equal reports whether two change sets are structurally identical. Used by
// the policy guard to reject tampered precomputed diffs. Order-insensitive:
// both sides are normalized before comparison.
func Equal(a, b []models.ChangeDiff) bool {
	if len(a) != len(b) {
		return false
	}
	an := normalize(a)
	bn := normalize(b)
	for i := range an {
		if an[i].Field != bn[i].Field || an[i].ChangeType != bn[i].ChangeType {
			return false
		}
		if !equal(an[i].OldValue, bn[i].OldValue) || !equal(an[i].NewValue, bn[i].NewValue) {
			return false
		}
	}
	return true
}

func normalize(changes []models.ChangeDiff) []models.ChangeDiff {
	out := append([]models.ChangeDiff{}, changes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func unionKeys(before, after map[string]any) []string {
	seen := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		seen[k] = struct{}{}
	}
	for k := range after {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// equal compares two values by serialized equality so structurally identical
// nested values compare equal regardless of their concrete Go types.
func equal(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		// Unmarshalable values fall back to string formatting; diffing must
		// never fail.
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return string(ab) == string(bb)
}
