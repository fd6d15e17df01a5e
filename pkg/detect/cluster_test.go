package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClustersConnectedComponent(t *testing.T) {
	// Four carriers fully linked at 80; two isolated carriers.
	ps := NewPairScores()
	members := []int64{1, 2, 3, 4}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			ps.Scores[Pair{A: members[i], B: members[j]}] = 80
		}
	}
	allDots := []int64{1, 2, 3, 4, 5, 6}

	clusters := BuildClusters(ps, allDots, DefaultClusterThreshold)
	require.Len(t, clusters, 3)

	big := clusters[0]
	assert.Equal(t, "C0001", big.ClusterID)
	assert.Equal(t, 4, big.Size)
	assert.Equal(t, []int64{1, 2, 3, 4}, big.Members)
	assert.Equal(t, 6, big.EdgeCount)
	assert.Equal(t, 80.0, big.AvgLinkScore)
	assert.Equal(t, 80.0, big.MaxLinkScore)

	// Singletons follow, ordered by member.
	assert.Equal(t, "C0002", clusters[1].ClusterID)
	assert.Equal(t, []int64{5}, clusters[1].Members)
	assert.Equal(t, "C0003", clusters[2].ClusterID)
	assert.Equal(t, []int64{6}, clusters[2].Members)
	assert.Equal(t, 0, clusters[1].EdgeCount)
	assert.Equal(t, 0.0, clusters[1].MaxLinkScore)
}

func TestBuildClustersThresholdGatesEdges(t *testing.T) {
	ps := NewPairScores()
	ps.Scores[Pair{A: 1, B: 2}] = 29.9
	ps.Scores[Pair{A: 3, B: 4}] = 30.0

	clusters := BuildClusters(ps, []int64{1, 2, 3, 4}, 30.0)
	require.Len(t, clusters, 3)

	// Only the pair at exactly the threshold merges.
	assert.Equal(t, []int64{3, 4}, clusters[0].Members)
	assert.Equal(t, 30.0, clusters[0].MaxLinkScore)
	assert.Equal(t, []int64{1}, clusters[1].Members)
	assert.Equal(t, []int64{2}, clusters[2].Members)
}

func TestBuildClustersOrdering(t *testing.T) {
	// Two two-member clusters with different max scores; size ties broken by
	// descending max link score.
	ps := NewPairScores()
	ps.Scores[Pair{A: 1, B: 2}] = 40
	ps.Scores[Pair{A: 3, B: 4}] = 90

	clusters := BuildClusters(ps, []int64{1, 2, 3, 4}, 30.0)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int64{3, 4}, clusters[0].Members)
	assert.Equal(t, []int64{1, 2}, clusters[1].Members)
}

func TestBuildClustersTransitiveChain(t *testing.T) {
	// 1-2 and 2-3 qualify; 1-3 does not, but all three share a component.
	ps := NewPairScores()
	ps.Scores[Pair{A: 1, B: 2}] = 50
	ps.Scores[Pair{A: 2, B: 3}] = 60

	clusters := BuildClusters(ps, []int64{1, 2, 3}, 30.0)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3}, clusters[0].Members)
	assert.Equal(t, 2, clusters[0].EdgeCount)
	assert.Equal(t, 55.0, clusters[0].AvgLinkScore)
	assert.Equal(t, 60.0, clusters[0].MaxLinkScore)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind()
	for _, n := range []int64{1, 2, 3, 4} {
		uf.addNode(n)
	}
	uf.union(1, 2)
	uf.union(3, 4)
	assert.Equal(t, uf.find(1), uf.find(2))
	assert.Equal(t, uf.find(3), uf.find(4))
	assert.NotEqual(t, uf.find(1), uf.find(3))

	uf.union(2, 3)
	assert.Equal(t, uf.find(1), uf.find(4))
}
