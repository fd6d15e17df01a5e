// Package ingest drives the four-stage FMCSA fetch: prior-revoke census
// seeds, one-hop expansion over shared identifiers, crashes, and
// inspections. Each stage records a SyncRun transition; a stage failure is
// recorded and the pipeline continues with the data already present.
package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/fleetsight/fleetsight/pkg/reporting"
	"github.com/fleetsight/fleetsight/pkg/socrata"
	"github.com/fleetsight/fleetsight/pkg/store"
)

// Batch ceilings for external query predicates.
const (
	dotBatchSize     = 100
	phoneChunkSize   = 20
	officerChunkSize = 10
	addressChunkSize = 10

	maxExpandPhones    = 200
	maxExpandOfficers  = 100
	maxExpandAddresses = 100
)

// Options controls an ingestion run.
type Options struct {
	MaxSeeds        int // 0 = unlimited
	ExpandHops      int // 0 or 1
	SkipCrashes     bool
	SkipInspections bool
}

// StageResult records one stage's outcome for run reporting.
type StageResult struct {
	Dataset string
	Rows    int
	Err     error
}

// Orchestrator wires the Socrata client and the store through the four
// ingestion stages.
type Orchestrator struct {
	store  *store.Store
	client *socrata.Client
	logger *reporting.Logger
}

// New creates an ingestion orchestrator.
func New(st *store.Store, client *socrata.Client, logger *reporting.Logger) *Orchestrator {
	return &Orchestrator{store: st, client: client, logger: logger}
}

// Run executes the stages in order. Stage failures are recorded in SyncRun
// rows and returned per stage; they do not abort the stages that follow.
func (o *Orchestrator) Run(ctx context.Context, runID string, opts Options) []StageResult {
	var results []StageResult

	seedDots, seedResult := o.runStage(ctx, runID, "census_seeds", func(ctx context.Context) ([]int64, int, error) {
		return o.syncSeeds(ctx, opts.MaxSeeds)
	})
	results = append(results, seedResult)
	o.logger.Info("Seed DOT count", "count", len(seedDots))

	scope := seedDots
	if opts.ExpandHops >= 1 && len(seedDots) > 0 {
		expanded, expandResult := o.runStage(ctx, runID, "census_expand", func(ctx context.Context) ([]int64, int, error) {
			return o.syncExpand(ctx, seedDots)
		})
		results = append(results, expandResult)
		if expandResult.Err == nil {
			scope = expanded
		}
	}
	o.logger.Info("Total carriers in scope", "count", len(scope))

	if !opts.SkipCrashes && len(scope) > 0 {
		_, crashResult := o.runStage(ctx, runID, "crashes", func(ctx context.Context) ([]int64, int, error) {
			n, err := o.syncCrashes(ctx, scope)
			return nil, n, err
		})
		results = append(results, crashResult)
	}

	if !opts.SkipInspections && len(scope) > 0 {
		_, inspResult := o.runStage(ctx, runID, "inspections", func(ctx context.Context) ([]int64, int, error) {
			n, err := o.syncInspections(ctx, scope)
			return nil, n, err
		})
		results = append(results, inspResult)
	}

	return results
}

// runStage brackets a stage with SyncRun bookkeeping.
func (o *Orchestrator) runStage(ctx context.Context, runID, dataset string, fn func(context.Context) ([]int64, int, error)) ([]int64, StageResult) {
	stageRunID := fmt.Sprintf("%s_%s", runID, dataset)
	if err := o.store.StartSyncRun(ctx, stageRunID, dataset); err != nil {
		o.logger.Error("Failed to start sync run", "dataset", dataset, "error", err)
		return nil, StageResult{Dataset: dataset, Err: err}
	}

	dots, rows, err := fn(ctx)
	if err != nil {
		o.logger.Error("Stage failed", "dataset", dataset, "error", err)
		if finishErr := o.store.FinishSyncRun(ctx, stageRunID, store.SyncStatusFailed, rows, err.Error()); finishErr != nil {
			o.logger.Error("Failed to mark sync run failed", "dataset", dataset, "error", finishErr)
		}
		return dots, StageResult{Dataset: dataset, Rows: rows, Err: err}
	}

	if err := o.store.FinishSyncRun(ctx, stageRunID, store.SyncStatusDone, rows, ""); err != nil {
		o.logger.Error("Failed to mark sync run done", "dataset", dataset, "error", err)
	}
	return dots, StageResult{Dataset: dataset, Rows: rows}
}

// syncSeeds fetches every census carrier with prior_revoke_flag='Y', upserts
// them, and pulls in the prior-revoke ancestor carriers they reference.
// Returns the seed DOT scope (seeds plus ancestors) and the upserted count.
func (o *Orchestrator) syncSeeds(ctx context.Context, maxSeeds int) ([]int64, int, error) {
	o.logger.Info("Stage 1: fetching prior-revoke seeds from census")

	rows, err := o.client.FetchAll(ctx, CensusResource, socrata.Query{
		Select: censusSelect,
		Where:  "prior_revoke_flag='Y'",
	}, maxSeeds)
	if err != nil {
		return nil, 0, fmt.Errorf("seed fetch failed: %w", err)
	}
	o.logger.Info("Retrieved seed carriers", "count", len(rows))

	parsed := parseCarrierRows(rows)
	count, err := o.store.UpsertCarriers(ctx, parsed)
	if err != nil {
		return nil, count, err
	}
	o.logger.Info("Upserted seed carriers", "count", count)

	seedSet := make(map[int64]struct{})
	fetched := make(map[int64]struct{})
	for _, r := range parsed {
		seedSet[r.DOT] = struct{}{}
		fetched[r.DOT] = struct{}{}
		if r.PriorRevokeDOT != nil && *r.PriorRevokeDOT > 0 {
			seedSet[*r.PriorRevokeDOT] = struct{}{}
		}
	}

	// Ancestors referenced by prior_revoke_dot but not among the seeds.
	// Ones already present in the database are not refetched.
	var missing []int64
	for dot := range seedSet {
		if _, ok := fetched[dot]; !ok {
			missing = append(missing, dot)
		}
	}
	var ancestors []int64
	if len(missing) > 0 {
		known, err := o.store.KnownDots(ctx, missing)
		if err != nil {
			return nil, count, err
		}
		for _, dot := range missing {
			if !known[dot] {
				ancestors = append(ancestors, dot)
			}
		}
	}
	sort.Slice(ancestors, func(i, j int) bool { return ancestors[i] < ancestors[j] })

	if len(ancestors) > 0 {
		o.logger.Info("Fetching prior-revoke ancestor carriers", "count", len(ancestors))
		for _, chunk := range chunkInt64(ancestors, dotBatchSize) {
			ancestorRows, err := o.client.FetchAll(ctx, CensusResource, socrata.Query{
				Select: censusSelect,
				Where:  socrata.InInt64("dot_number", chunk),
			}, 0)
			if err != nil {
				return nil, count, fmt.Errorf("ancestor fetch failed: %w", err)
			}
			if _, err := o.store.UpsertCarriers(ctx, parseCarrierRows(ancestorRows)); err != nil {
				return nil, count, err
			}
		}
	}

	return sortedDots(seedSet), count, nil
}

// syncExpand finds carriers sharing a phone, officer, or address with the
// seed set via batched OR predicates, and returns the widened DOT scope.
func (o *Orchestrator) syncExpand(ctx context.Context, seedDots []int64) ([]int64, int, error) {
	o.logger.Info("Stage 2: expanding one-hop neighbors", "seeds", len(seedDots))

	ids, err := o.store.LoadSeedIdentifiers(ctx, seedDots)
	if err != nil {
		return nil, 0, err
	}

	phones := capStrings(ids.Phones, maxExpandPhones)
	officers := capStrings(ids.Officers, maxExpandOfficers)
	addresses := ids.Addresses
	if len(addresses) > maxExpandAddresses {
		addresses = addresses[:maxExpandAddresses]
	}

	scope := make(map[int64]struct{})
	for _, dot := range seedDots {
		scope[dot] = struct{}{}
	}
	total := 0

	if len(phones) > 0 {
		o.logger.Info("Expanding by phone numbers", "count", len(phones))
		for _, chunk := range chunkStrings(phones, phoneChunkSize) {
			conditions := make([]string, len(chunk))
			for i, p := range chunk {
				conditions[i] = fmt.Sprintf("phone=%s", socrata.QuoteString(p))
			}
			n, err := o.expandQuery(ctx, socrata.OrGroup(conditions), scope)
			if err != nil {
				return nil, total, err
			}
			total += n
		}
	}

	if len(officers) > 0 {
		o.logger.Info("Expanding by officer names", "count", len(officers))
		for _, chunk := range chunkStrings(officers, officerChunkSize) {
			conditions := make([]string, len(chunk))
			for i, officer := range chunk {
				q := socrata.QuoteString(officer)
				conditions[i] = fmt.Sprintf("upper(company_officer_1)=%s OR upper(company_officer_2)=%s", q, q)
			}
			n, err := o.expandQuery(ctx, socrata.OrGroup(conditions), scope)
			if err != nil {
				return nil, total, err
			}
			total += n
		}
	}

	if len(addresses) > 0 {
		o.logger.Info("Expanding by addresses", "count", len(addresses))
		for _, chunk := range chunkAddresses(addresses, addressChunkSize) {
			conditions := make([]string, len(chunk))
			for i, a := range chunk {
				conditions[i] = fmt.Sprintf("(upper(phy_street)=%s AND upper(phy_city)=%s AND upper(phy_state)=%s)",
					socrata.QuoteString(a.Street), socrata.QuoteString(a.City), socrata.QuoteString(a.State))
			}
			n, err := o.expandQuery(ctx, socrata.OrGroup(conditions), scope)
			if err != nil {
				return nil, total, err
			}
			total += n
		}
	}

	o.logger.Info("Expansion complete", "scope", len(scope), "upserted", total)
	return sortedDots(scope), total, nil
}

// expandQuery runs one batched census predicate and folds the matches into
// the scope set.
func (o *Orchestrator) expandQuery(ctx context.Context, where string, scope map[int64]struct{}) (int, error) {
	rows, err := o.client.FetchAll(ctx, CensusResource, socrata.Query{
		Select: censusSelect,
		Where:  where,
	}, 0)
	if err != nil {
		return 0, fmt.Errorf("expansion fetch failed: %w", err)
	}
	parsed := parseCarrierRows(rows)
	count, err := o.store.UpsertCarriers(ctx, parsed)
	if err != nil {
		return count, err
	}
	for _, r := range parsed {
		scope[r.DOT] = struct{}{}
	}
	return count, nil
}

// syncCrashes fetches crash records for the DOT scope in IN(...) batches.
func (o *Orchestrator) syncCrashes(ctx context.Context, dots []int64) (int, error) {
	o.logger.Info("Stage 3: fetching crashes", "carriers", len(dots))

	total := 0
	for _, chunk := range chunkInt64(dots, dotBatchSize) {
		rows, err := o.client.FetchAll(ctx, CrashResource, socrata.Query{
			Where: socrata.InInt64("dot_number", chunk),
		}, 0)
		if err != nil {
			return total, fmt.Errorf("crash fetch failed: %w", err)
		}
		parsed := make([]store.CrashRow, 0, len(rows))
		for _, r := range rows {
			if cr, ok := ParseCrashRow(r); ok {
				parsed = append(parsed, cr)
			}
		}
		n, err := o.store.UpsertCrashes(ctx, parsed)
		if err != nil {
			return total, err
		}
		total += n
	}
	o.logger.Info("Upserted crash records", "count", total)
	return total, nil
}

// syncInspections fetches inspection records for the DOT scope.
func (o *Orchestrator) syncInspections(ctx context.Context, dots []int64) (int, error) {
	o.logger.Info("Stage 4: fetching inspections", "carriers", len(dots))

	total := 0
	for _, chunk := range chunkInt64(dots, dotBatchSize) {
		rows, err := o.client.FetchAll(ctx, InspectionResource, socrata.Query{
			Where: socrata.InInt64("dot_number", chunk),
		}, 0)
		if err != nil {
			return total, fmt.Errorf("inspection fetch failed: %w", err)
		}
		parsed := make([]store.InspectionRow, 0, len(rows))
		for _, r := range rows {
			if ir, ok := ParseInspectionRow(r); ok {
				parsed = append(parsed, ir)
			}
		}
		n, err := o.store.UpsertInspections(ctx, parsed)
		if err != nil {
			return total, err
		}
		total += n
	}
	o.logger.Info("Upserted inspection records", "count", total)
	return total, nil
}

// ── Helpers ─────────────────────────────────────────────────────

func parseCarrierRows(rows []socrata.Row) []store.CarrierRow {
	parsed := make([]store.CarrierRow, 0, len(rows))
	for _, r := range rows {
		if cr, ok := ParseCarrierRow(r); ok {
			parsed = append(parsed, cr)
		}
	}
	return parsed
}

func sortedDots(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for dot := range set {
		out = append(out, dot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func capStrings(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func chunkInt64(list []int64, size int) [][]int64 {
	var out [][]int64
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		out = append(out, list[start:end])
	}
	return out
}

func chunkStrings(list []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		out = append(out, list[start:end])
	}
	return out
}

func chunkAddresses(list []store.AddressTriple, size int) [][]store.AddressTriple {
	var out [][]store.AddressTriple
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		out = append(out, list[start:end])
	}
	return out
}
