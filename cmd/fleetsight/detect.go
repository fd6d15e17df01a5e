package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetsight/fleetsight/pkg/detect"
	"github.com/fleetsight/fleetsight/pkg/reporting"
	"github.com/fleetsight/fleetsight/pkg/store"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Args:  cobra.NoArgs,
	Short: "Run chameleon detection over ingested carriers",
	Long: `Scores every carrier pair sharing an identifier, clusters linked
carriers, computes per-carrier risk scores, and persists links, clusters,
and scores for the run.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().Float64("threshold", detect.DefaultClusterThreshold, "minimum link score for cluster edges")
	detectCmd.Flags().String("run-id", "", "run identifier (default: UTC timestamp)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
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
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.Detect.ClusterThreshold
	}

	logger := newLogger(cfg).WithField("run_id", runID)
	logger.Info("Fleetsight detect starting", "version", version, "threshold", threshold)

	st, err := store.Open(cfg.Database.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	engine := detect.NewEngine(st, logger)

	start := time.Now().UTC()
	result, err := engine.Detect(context.Background(), runID, threshold)
	end := time.Now().UTC()

	report := &reporting.RunReport{
		RunID:     runID,
		Kind:      reporting.RunKindDetect,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).String(),
		Success:   err == nil,
	}
	if result != nil {
		report.Carriers = result.Carriers
		report.RawPairs = result.RawPairs
		report.MeaningfulLinks = result.MeaningfulLinks
		report.Clusters = result.MultiMemberGroups
		report.HighRisk = result.HighRiskCarriers
	}

	storage, storageErr := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if storageErr != nil {
		logger.Warn("Failed to create report storage", "error", storageErr)
	} else if _, saveErr := storage.SaveReport(report); saveErr != nil {
		logger.Warn("Failed to save report", "error", saveErr)
	}

	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	logger.Info("Detection completed successfully",
		"carriers", result.Carriers,
		"meaningful_links", result.MeaningfulLinks,
		"clusters", result.MultiMemberGroups,
		"high_risk", result.HighRiskCarriers,
		"duration", report.Duration)
	return nil
}
