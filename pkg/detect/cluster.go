package detect

import (
	"fmt"
	"sort"
)

// Cluster is one connected component of carriers under edges whose link
// score meets the clustering threshold. Singleton clusters are kept in
// memory for risk scoring but only multi-member clusters are persisted.
type Cluster struct {
	ClusterID    string
	Size         int
	Members      []int64
	EdgeCount    int
	AvgLinkScore float64
	MaxLinkScore float64
}

// unionFind is a disjoint-set forest with path compression and union by
// rank. Keys are DOT numbers.
type unionFind struct {
	parent map[int64]int64
	rank   map[int64]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[int64]int64),
		rank:   make(map[int64]int),
	}
}

func (u *unionFind) addNode(x int64) {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		u.rank[x] = 0
	}
}

func (u *unionFind) find(x int64) int64 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int64) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// BuildClusters unions every pair whose score meets the threshold, groups
// the full DOT universe by representative, and returns clusters ordered by
// (-size, -max link score, ascending member tuple) with ids C0001, C0002…
// assigned in that order.
func BuildClusters(ps *PairScores, allDots []int64, threshold float64) []Cluster {
	uf := newUnionFind()
	for _, dot := range allDots {
		uf.addNode(dot)
	}

	qualifying := make(map[Pair]float64)
	for p, score := range ps.Scores {
		if score >= threshold {
			qualifying[p] = score
		}
	}
	for _, p := range sortedQualifying(qualifying) {
		uf.union(p.A, p.B)
	}

	membersByRoot := make(map[int64][]int64)
	for _, dot := range allDots {
		root := uf.find(dot)
		membersByRoot[root] = append(membersByRoot[root], dot)
	}

	clusters := make([]Cluster, 0, len(membersByRoot))
	for _, members := range membersByRoot {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		var scores []float64
		edgeCount := 0
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if s, ok := qualifying[Pair{A: members[i], B: members[j]}]; ok {
					edgeCount++
					scores = append(scores, s)
				}
			}
		}

		avg, max := 0.0, 0.0
		if len(scores) > 0 {
			sum := 0.0
			for _, s := range scores {
				sum += s
				if s > max {
					max = s
				}
			}
			avg = round4(sum / float64(len(scores)))
			max = round4(max)
		}

		clusters = append(clusters, Cluster{
			Size:         len(members),
			Members:      members,
			EdgeCount:    edgeCount,
			AvgLinkScore: avg,
			MaxLinkScore: max,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		if a.MaxLinkScore != b.MaxLinkScore {
			return a.MaxLinkScore > b.MaxLinkScore
		}
		return lessMembers(a.Members, b.Members)
	})
	for i := range clusters {
		clusters[i].ClusterID = fmt.Sprintf("C%04d", i+1)
	}
	return clusters
}

func sortedQualifying(qualifying map[Pair]float64) []Pair {
	pairs := make([]Pair, 0, len(qualifying))
	for p := range qualifying {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

func lessMembers(a, b []int64) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
