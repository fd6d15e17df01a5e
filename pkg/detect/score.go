package detect

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Pair is an unordered carrier pair stored with A < B.
type Pair struct {
	A, B int64
}

func makePair(a, b int64) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Reason records one feature's contribution to a pair's link score.
type Reason struct {
	Feature      Feature
	Value        string
	Frequency    int
	Contribution float64
}

// reasonJSON is the persisted shape of a Reason inside reasonsJson.
type reasonJSON struct {
	Feature      string  `json:"feature"`
	Value        string  `json:"value"`
	Frequency    int     `json:"frequency"`
	Contribution float64 `json:"contribution"`
}

func (r Reason) MarshalJSON() ([]byte, error) {
	return json.Marshal(reasonJSON{
		Feature:      r.Feature.String(),
		Value:        r.Value,
		Frequency:    r.Frequency,
		Contribution: r.Contribution,
	})
}

func (r *Reason) UnmarshalJSON(data []byte) error {
	var rj reasonJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	f, ok := FeatureFromString(rj.Feature)
	if !ok {
		return fmt.Errorf("unknown feature %q", rj.Feature)
	}
	r.Feature = f
	r.Value = rj.Value
	r.Frequency = rj.Frequency
	r.Contribution = rj.Contribution
	return nil
}

// PairScores accumulates weighted contributions per unordered pair, with a
// parallel reason list explaining each score.
type PairScores struct {
	Scores  map[Pair]float64
	Reasons map[Pair][]Reason
}

// NewPairScores returns an empty accumulator.
func NewPairScores() *PairScores {
	return &PairScores{
		Scores:  make(map[Pair]float64),
		Reasons: make(map[Pair][]Reason),
	}
}

func (ps *PairScores) add(p Pair, r Reason) {
	ps.Scores[p] += r.Contribution
	ps.Reasons[p] = append(ps.Reasons[p], r)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func truncateValue(v string) string {
	if len(v) > reasonValueMax {
		return v[:reasonValueMax]
	}
	return v
}

// ScorePairs walks every index bucket of two or more carriers and adds the
// rarity-weighted feature contribution to each unordered pair. Temporal and
// reserved features are not produced here.
func ScorePairs(idx Index) *PairScores {
	ps := NewPairScores()

	for f := Feature(0); f < featureCount; f++ {
		if f == FeatureAddressNewDOT || f == FeatureFleetAnomaly {
			continue
		}
		weight := f.Weight()
		for _, value := range idx.sortedValues(f) {
			members := idx[f][value]
			freq := len(members)
			if freq < 2 {
				continue
			}
			contribution := weight * rarityWeight(freq)
			if contribution <= 0 {
				continue
			}
			reason := Reason{
				Feature:      f,
				Value:        truncateValue(value),
				Frequency:    freq,
				Contribution: round4(contribution),
			}
			sorted := sortedMembers(members)
			for i := 0; i < len(sorted); i++ {
				for j := i + 1; j < len(sorted); j++ {
					ps.add(makePair(sorted[i], sorted[j]), reason)
				}
			}
		}
	}
	return ps
}

// inactiveStatuses are carrier status codes treated as no longer operating
// for the temporal co-location signal.
var inactiveStatuses = map[string]struct{}{
	"NOT AUTHORIZED": {},
	"OUT OF SERVICE": {},
	"REVOKED":        {},
}

func isInactiveStatus(status string) bool {
	_, ok := inactiveStatuses[strings.ToUpper(status)]
	return ok
}

// AugmentTemporal scans same-address carrier groups for a new DOT appearing
// within 180 days of another at the address being inactive, and adds a fixed
// bonus contribution per qualifying pair. Mutates ps in place.
func AugmentTemporal(carriers map[int64]*Carrier, ps *PairScores) {
	type entry struct {
		dot     int64
		addDate time.Time
		status  string
	}

	byAddress := make(map[string][]entry)
	for dot, c := range carriers {
		addr := NormalizeAddress(c.PhyStreet, c.PhyCity, c.PhyState)
		if addr == "" {
			continue
		}
		byAddress[addr] = append(byAddress[addr], entry{dot: dot, addDate: c.AddDate, status: c.StatusCode})
	}

	addrs := make([]string, 0, len(byAddress))
	for addr := range byAddress {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		group := byAddress[addr]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].dot < group[j].dot })

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !isInactiveStatus(a.status) && !isInactiveStatus(b.status) {
					continue
				}
				if a.addDate.IsZero() || b.addDate.IsZero() {
					continue
				}
				days := daysBetween(a.addDate, b.addDate)
				if days > TemporalWindowDays {
					continue
				}
				contribution := FeatureAddressNewDOT.Weight()
				ps.add(makePair(a.dot, b.dot), Reason{
					Feature:      FeatureAddressNewDOT,
					Value:        fmt.Sprintf("Same address, %dd apart, one inactive", days),
					Frequency:    2,
					Contribution: round4(contribution),
				})
			}
		}
	}
}

func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// SortReasons orders a pair's reasons by descending contribution, then fixed
// feature order, then value.
func SortReasons(reasons []Reason) {
	sort.Slice(reasons, func(i, j int) bool {
		a, b := reasons[i], reasons[j]
		if a.Contribution != b.Contribution {
			return a.Contribution > b.Contribution
		}
		if a.Feature != b.Feature {
			return a.Feature < b.Feature
		}
		return a.Value < b.Value
	})
}

// SortedPairs returns the accumulated pairs ordered by descending score, then
// ascending DOT pair.
func (ps *PairScores) SortedPairs() []Pair {
	pairs := make([]Pair, 0, len(ps.Scores))
	for p := range ps.Scores {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		si, sj := ps.Scores[pairs[i]], ps.Scores[pairs[j]]
		if si != sj {
			return si > sj
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}
