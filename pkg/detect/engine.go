package detect

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetsight/fleetsight/pkg/reporting"
)

// ErrNoCarriers is returned when the store holds no carriers to analyze.
var ErrNoCarriers = errors.New("no carriers in store; run ingest first")

// Link is one persisted carrier affiliation edge, A < B, with its ordered
// explanatory reasons.
type Link struct {
	A       int64
	B       int64
	Score   float64
	Reasons []Reason
}

// Store is the persistence surface the engine needs.
type Store interface {
	LoadCarriers(ctx context.Context) (map[int64]*Carrier, error)
	WriteDetection(ctx context.Context, runID string, links []Link, clusters []Cluster, scores []RiskScore) error
}

// Result summarizes one detection run.
type Result struct {
	RunID             string      `json:"run_id"`
	Carriers          int         `json:"carriers"`
	RawPairs          int         `json:"raw_pairs"`
	MeaningfulLinks   int         `json:"meaningful_links"`
	MultiMemberGroups int         `json:"multi_member_clusters"`
	HighRiskCarriers  int         `json:"high_risk_carriers"`
	TopComposite      []RiskScore `json:"-"`
}

// Engine wires the detection stages: load, index, score, augment, cluster,
// risk, persist. Single-threaded within a run.
type Engine struct {
	store  Store
	logger *reporting.Logger
}

// NewEngine creates a detection engine over the given store.
func NewEngine(store Store, logger *reporting.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Detect runs the full detection pipeline for runID and persists links,
// clusters, and risk scores. Threshold gates clustering edges only; the
// meaningful-link cutoff applies at persistence.
func (e *Engine) Detect(ctx context.Context, runID string, threshold float64) (*Result, error) {
	carriers, err := e.store.LoadCarriers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load carriers: %w", err)
	}
	e.logger.Info("Loaded carriers from DB", "count", len(carriers))
	if len(carriers) == 0 {
		return nil, ErrNoCarriers
	}

	e.logger.Info("Building inverted index")
	idx := BuildIndex(carriers)
	for f := Feature(0); f < featureCount; f++ {
		if n := idx.UniqueValues(f); n > 0 {
			e.logger.Info("Indexed feature", "feature", f.String(), "unique_values", n)
		}
	}

	e.logger.Info("Scoring pairwise links")
	ps := ScorePairs(idx)
	e.logger.Info("Raw pairs found", "count", len(ps.Scores))

	e.logger.Info("Detecting temporal signals")
	AugmentTemporal(carriers, ps)

	links := e.meaningfulLinks(ps)
	e.logger.Info("Meaningful links", "count", len(links), "cutoff", MeaningfulLinkScore)

	e.logger.Info("Computing clusters", "threshold", threshold)
	allDots := make([]int64, 0, len(carriers))
	for dot := range carriers {
		allDots = append(allDots, dot)
	}
	clusters := BuildClusters(ps, allDots, threshold)
	multi := 0
	for _, cl := range clusters {
		if cl.Size > 1 {
			multi++
		}
	}
	e.logger.Info("Multi-member clusters", "count", multi)

	e.logger.Info("Computing risk scores")
	scores := ComputeRiskScores(carriers, clusters, ps)
	highRisk := 0
	for _, rs := range scores {
		if rs.CompositeScore >= 70 {
			highRisk++
		}
	}
	e.logger.Info("High-risk carriers", "count", highRisk)

	e.logger.Info("Writing results to DB")
	if err := e.store.WriteDetection(ctx, runID, links, clusters, scores); err != nil {
		return nil, fmt.Errorf("failed to write detection results: %w", err)
	}

	top := TopByComposite(scores, 10)
	for _, rs := range top {
		e.logger.Info("Top risk score",
			"dot", rs.DOT,
			"composite", rs.CompositeScore,
			"chameleon", rs.ChameleonScore,
			"safety", rs.SafetyScore,
			"cluster_size", rs.ClusterSize)
	}

	return &Result{
		RunID:             runID,
		Carriers:          len(carriers),
		RawPairs:          len(ps.Scores),
		MeaningfulLinks:   len(links),
		MultiMemberGroups: multi,
		HighRiskCarriers:  highRisk,
		TopComposite:      top,
	}, nil
}

// meaningfulLinks materializes the pairs above the persistence cutoff in
// final link order, with each pair's reasons in final reason order.
func (e *Engine) meaningfulLinks(ps *PairScores) []Link {
	links := make([]Link, 0, len(ps.Scores))
	for _, p := range ps.SortedPairs() {
		score := ps.Scores[p]
		if score < MeaningfulLinkScore {
			continue
		}
		reasons := make([]Reason, len(ps.Reasons[p]))
		copy(reasons, ps.Reasons[p])
		SortReasons(reasons)
		links = append(links, Link{
			A:       p.A,
			B:       p.B,
			Score:   round4(score),
			Reasons: reasons,
		})
	}
	return links
}
