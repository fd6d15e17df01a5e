package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetsight/fleetsight/pkg/ingest"
	"github.com/fleetsight/fleetsight/pkg/reporting"
	"github.com/fleetsight/fleetsight/pkg/socrata"
	"github.com/fleetsight/fleetsight/pkg/store"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Args:  cobra.NoArgs,
	Short: "Fetch FMCSA data into the local database",
	Long: `Runs the four-stage ingestion pipeline: prior-revoke census seeds,
one-hop expansion over shared phones/officers/addresses, crash records,
and inspection records.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Int("max-seeds", 0, "cap the number of seed carriers fetched (0 = unlimited)")
	ingestCmd.Flags().Int("expand-hops", 1, "identifier expansion hops (0 disables expansion)")
	ingestCmd.Flags().Bool("skip-crashes", false, "skip the crash sync stage")
	ingestCmd.Flags().Bool("skip-inspections", false, "skip the inspection sync stage")
	ingestCmd.Flags().String("run-id", "", "run identifier (default: UTC timestamp)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	maxSeeds, _ := cmd.Flags().GetInt("max-seeds")
	expandHops, _ := cmd.Flags().GetInt("expand-hops")
	skipCrashes, _ := cmd.Flags().GetBool("skip-crashes")
	skipInspections, _ := cmd.Flags().GetBool("skip-inspections")
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = defaultRunID()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg).WithField("run_id", runID)
	logger.Info("Fleetsight ingest starting", "version", version)

	st, err := store.Open(cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	client := socrata.New(socrata.Config{
		BaseURL:   cfg.Socrata.BaseURL,
		Timeout:   cfg.Socrata.Timeout,
		PageSize:  cfg.Socrata.PageSize,
		PagePause: cfg.Socrata.PagePause,
		Retries:   cfg.Socrata.Retries,
	}, logger)

	if maxSeeds == 0 {
		maxSeeds = cfg.Ingest.MaxSeeds
	}
	if !cmd.Flags().Changed("expand-hops") {
		expandHops = cfg.Ingest.ExpandHops
	}

	orch := ingest.New(st, client, logger)

	start := time.Now().UTC()
	results := orch.Run(context.Background(), runID, ingest.Options{
		MaxSeeds:        maxSeeds,
		ExpandHops:      expandHops,
		SkipCrashes:     skipCrashes,
		SkipInspections: skipInspections,
	})
	end := time.Now().UTC()

	report := &reporting.RunReport{
		RunID:     runID,
		Kind:      reporting.RunKindIngest,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).String(),
		Success:   true,
	}
	var failed []string
	for _, r := range results {
		stage := reporting.StageSummary{
			Dataset:       r.Dataset,
			Status:        store.SyncStatusDone,
			RowsProcessed: r.Rows,
		}
		if r.Err != nil {
			stage.Status = store.SyncStatusFailed
			stage.Error = r.Err.Error()
			report.Success = false
			failed = append(failed, r.Dataset)
		}
		report.Stages = append(report.Stages, stage)
	}

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		logger.Warn("Failed to create report storage", "error", err)
	} else if _, saveErr := storage.SaveReport(report); saveErr != nil {
		logger.Warn("Failed to save report", "error", saveErr)
	}

	if len(failed) > 0 {
		return fmt.Errorf("ingest run %s completed with failed stages: %v", runID, failed)
	}
	logger.Info("Ingest completed successfully", "duration", report.Duration)
	return nil
}
