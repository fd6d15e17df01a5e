package detect

import (
	"fmt"
	"math"
	"sort"
)

// RiskScore is the per-carrier scoring output. Chameleon, safety, and
// composite all live in [0, 100]; signals enumerate which components fired.
type RiskScore struct {
	DOT            int64
	ChameleonScore float64
	SafetyScore    float64
	CompositeScore float64
	Signals        []string
	ClusterSize    int
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeRiskScores combines per-carrier signals into chameleon, safety, and
// composite scores. The result is ordered by ascending DOT.
func ComputeRiskScores(carriers map[int64]*Carrier, clusters []Cluster, ps *PairScores) []RiskScore {
	clusterSize := make(map[int64]int)
	for _, cl := range clusters {
		for _, dot := range cl.Members {
			clusterSize[dot] = cl.Size
		}
	}

	maxLink := make(map[int64]float64)
	sharedVINs := make(map[int64]int)
	for p, reasons := range ps.Reasons {
		for _, r := range reasons {
			if r.Feature == FeatureVIN {
				sharedVINs[p.A]++
				sharedVINs[p.B]++
			}
		}
		score := ps.Scores[p]
		if score > maxLink[p.A] {
			maxLink[p.A] = score
		}
		if score > maxLink[p.B] {
			maxLink[p.B] = score
		}
	}

	dots := make([]int64, 0, len(carriers))
	for dot := range carriers {
		dots = append(dots, dot)
	}
	sort.Slice(dots, func(i, j int) bool { return dots[i] < dots[j] })

	out := make([]RiskScore, 0, len(dots))
	for _, dot := range dots {
		c := carriers[dot]
		var signals []string
		chameleon := 0.0
		safety := 0.0

		if c.PriorRevokeFlag == "Y" {
			chameleon += 40
			signals = append(signals, "prior_revoke_flag")
		}

		size, ok := clusterSize[dot]
		if !ok {
			size = 1
		}
		if size >= 3 {
			chameleon += 20
			signals = append(signals, fmt.Sprintf("cluster_size_%d", size))
		}

		if maxLink[dot] > 50 {
			chameleon += 10
			signals = append(signals, fmt.Sprintf("max_link_%d", int(math.Floor(maxLink[dot]))))
		}

		vinBonus := float64(sharedVINs[dot] * 10)
		if vinBonus > 30 {
			vinBonus = 30
		}
		if vinBonus > 0 {
			chameleon += vinBonus
			signals = append(signals, fmt.Sprintf("shared_vins_%d", sharedVINs[dot]))
		}

		if chameleon > 100 {
			chameleon = 100
		}

		if c.CrashCount > 0 {
			crashBonus := 20 + 5*float64(c.CrashCount)
			if crashBonus > 50 {
				crashBonus = 50
			}
			safety += crashBonus
			signals = append(signals, fmt.Sprintf("crashes_%d", c.CrashCount))
		}

		if c.Fatalities > 0 {
			safety += 30
			signals = append(signals, fmt.Sprintf("fatalities_%d", c.Fatalities))
		}

		if c.PowerUnits > 0 && c.CrashCount > 0 {
			if float64(c.CrashCount)/float64(c.PowerUnits) > 0.5 {
				safety += 20
				signals = append(signals, "high_crash_ratio")
			}
		}

		if safety > 100 {
			safety = 100
		}

		out = append(out, RiskScore{
			DOT:            dot,
			ChameleonScore: round2(chameleon),
			SafetyScore:    round2(safety),
			CompositeScore: round2(0.7*chameleon + 0.3*safety),
			Signals:        signals,
			ClusterSize:    size,
		})
	}
	return out
}

// TopByComposite returns the n highest composite scores, breaking ties by
// ascending DOT.
func TopByComposite(scores []RiskScore, n int) []RiskScore {
	sorted := make([]RiskScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CompositeScore != sorted[j].CompositeScore {
			return sorted[i].CompositeScore > sorted[j].CompositeScore
		}
		return sorted[i].DOT < sorted[j].DOT
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
