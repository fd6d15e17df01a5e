package detect

import (
	"fmt"
	"sort"
)

// Index maps each feature to its inverted index: normalized value to the set
// of DOT numbers presenting that value.
type Index map[Feature]map[string]map[int64]struct{}

func priorRevokeKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// BuildIndex builds the inverted indices over every carrier's extracted
// features. The prior_revoke bucket contains both ends of the revocation
// link, not just the emitting carrier.
func BuildIndex(carriers map[int64]*Carrier) Index {
	known := func(dot int64) bool {
		_, ok := carriers[dot]
		return ok
	}

	idx := make(Index)
	addMember := func(f Feature, value string, dot int64) {
		bucket, ok := idx[f]
		if !ok {
			bucket = make(map[string]map[int64]struct{})
			idx[f] = bucket
		}
		members, ok := bucket[value]
		if !ok {
			members = make(map[int64]struct{})
			bucket[value] = members
		}
		members[dot] = struct{}{}
	}

	for dot, c := range carriers {
		for _, fv := range ExtractFeatures(c, known) {
			addMember(fv.Feature, fv.Value, dot)
			if fv.Feature == FeaturePriorRevoke {
				addMember(fv.Feature, fv.Value, c.PriorRevokeDOT)
			}
		}
	}
	return idx
}

// sortedValues returns the bucket keys of one feature in ascending order, so
// downstream enumeration is deterministic.
func (idx Index) sortedValues(f Feature) []string {
	bucket := idx[f]
	values := make([]string, 0, len(bucket))
	for v := range bucket {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// sortedMembers returns a bucket's DOT set in ascending order.
func sortedMembers(members map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(members))
	for dot := range members {
		out = append(out, dot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UniqueValues reports the number of distinct values indexed for a feature.
func (idx Index) UniqueValues(f Feature) int {
	return len(idx[f])
}
