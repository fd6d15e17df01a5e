package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findScore(t *testing.T, scores []RiskScore, dot int64) RiskScore {
	t.Helper()
	for _, s := range scores {
		if s.DOT == dot {
			return s
		}
	}
	t.Fatalf("no risk score for DOT %d", dot)
	return RiskScore{}
}

func TestComputeRiskScoresChameleonSignals(t *testing.T) {
	carriers := carrierMap(
		&Carrier{DOT: 1, PriorRevokeFlag: "Y"},
		&Carrier{DOT: 2},
		&Carrier{DOT: 3},
	)
	clusters := []Cluster{
		{ClusterID: "C0001", Size: 3, Members: []int64{1, 2, 3}},
	}
	ps := NewPairScores()
	ps.Scores[Pair{A: 1, B: 2}] = 60
	ps.Reasons[Pair{A: 1, B: 2}] = []Reason{
		{Feature: FeatureVIN, Value: "1HGBH41JXMN109186", Frequency: 2, Contribution: 60},
	}

	scores := ComputeRiskScores(carriers, clusters, ps)
	require.Len(t, scores, 3)

	s1 := findScore(t, scores, 1)
	// prior_revoke 40 + cluster_size 20 + max_link 10 + shared_vins 10 = 80.
	assert.Equal(t, 80.0, s1.ChameleonScore)
	assert.Equal(t, 0.0, s1.SafetyScore)
	assert.Equal(t, 56.0, s1.CompositeScore)
	assert.Equal(t, 3, s1.ClusterSize)
	assert.Equal(t, []string{"prior_revoke_flag", "cluster_size_3", "max_link_60", "shared_vins_1"}, s1.Signals)

	s3 := findScore(t, scores, 3)
	// Cluster membership alone, no links of its own.
	assert.Equal(t, 20.0, s3.ChameleonScore)
	assert.Equal(t, []string{"cluster_size_3"}, s3.Signals)
}

func TestComputeRiskScoresSharedVINCap(t *testing.T) {
	carriers := carrierMap(&Carrier{DOT: 1}, &Carrier{DOT: 2})
	ps := NewPairScores()
	p := Pair{A: 1, B: 2}
	ps.Scores[p] = 40
	for i := 0; i < 5; i++ {
		ps.Reasons[p] = append(ps.Reasons[p], Reason{Feature: FeatureVIN, Frequency: 2, Contribution: 60})
	}

	scores := ComputeRiskScores(carriers, nil, ps)
	s := findScore(t, scores, 1)
	// Five shared VINs would add 50 but the bonus caps at 30.
	assert.Equal(t, 30.0, s.ChameleonScore)
	assert.Contains(t, s.Signals, "shared_vins_5")
}

func TestComputeRiskScoresSafety(t *testing.T) {
	carriers := carrierMap(
		&Carrier{DOT: 1, CrashCount: 3, Fatalities: 1, PowerUnits: 4},
		&Carrier{DOT: 2, CrashCount: 10, PowerUnits: 100},
		&Carrier{DOT: 3, CrashCount: 2, PowerUnits: 2},
	)

	scores := ComputeRiskScores(carriers, nil, NewPairScores())

	s1 := findScore(t, scores, 1)
	// crashes: 20 + 5*3 = 35; fatalities: 30; ratio 3/4 > 0.5: 20. Total 85.
	assert.Equal(t, 85.0, s1.SafetyScore)
	assert.Equal(t, []string{"crashes_3", "fatalities_1", "high_crash_ratio"}, s1.Signals)

	s2 := findScore(t, scores, 2)
	// crashes: 20 + 50 caps at 50; ratio 0.1 below cutoff.
	assert.Equal(t, 50.0, s2.SafetyScore)
	assert.Equal(t, []string{"crashes_10"}, s2.Signals)

	s3 := findScore(t, scores, 3)
	// crashes: 20 + 10 = 30; ratio exactly 1.0 fires.
	assert.Equal(t, 50.0, s3.SafetyScore)
}

func TestComputeRiskScoresComposite(t *testing.T) {
	carriers := carrierMap(&Carrier{DOT: 7, PriorRevokeFlag: "Y", CrashCount: 1})
	scores := ComputeRiskScores(carriers, nil, NewPairScores())

	s := findScore(t, scores, 7)
	assert.Equal(t, 40.0, s.ChameleonScore)
	assert.Equal(t, 25.0, s.SafetyScore)
	// 0.7*40 + 0.3*25 = 35.5
	assert.Equal(t, 35.5, s.CompositeScore)
}

func TestComputeRiskScoresOrderedByDOT(t *testing.T) {
	carriers := carrierMap(&Carrier{DOT: 30}, &Carrier{DOT: 10}, &Carrier{DOT: 20})
	scores := ComputeRiskScores(carriers, nil, NewPairScores())
	require.Len(t, scores, 3)
	assert.Equal(t, int64(10), scores[0].DOT)
	assert.Equal(t, int64(20), scores[1].DOT)
	assert.Equal(t, int64(30), scores[2].DOT)
}

func TestTopByComposite(t *testing.T) {
	scores := []RiskScore{
		{DOT: 1, CompositeScore: 50},
		{DOT: 2, CompositeScore: 90},
		{DOT: 3, CompositeScore: 50},
		{DOT: 4, CompositeScore: 70},
	}
	top := TopByComposite(scores, 3)
	require.Len(t, top, 3)
	assert.Equal(t, int64(2), top[0].DOT)
	assert.Equal(t, int64(4), top[1].DOT)
	assert.Equal(t, int64(1), top[2].DOT, "ties break on ascending DOT")

	all := TopByComposite(scores, 10)
	assert.Len(t, all, 4)
}
