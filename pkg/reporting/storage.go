package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Storage persists run reports as JSON files under a single directory,
// pruning to the most recent keepLastN.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance, creating the output directory
// if needed.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN, logger: logger}, nil
}

// SaveReport writes a run report to <kind>-<timestamp>-<runID>.json and
// returns the path.
func (s *Storage) SaveReport(report *RunReport) (string, error) {
	timestamp := report.StartTime.UTC().Format("20060102-150405")
	filename := fmt.Sprintf("%s-%s-%s.json", report.Kind, timestamp, report.RunID)
	path := filepath.Join(s.outputDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	s.logger.Info("Run report saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.pruneOldReports(); err != nil {
			s.logger.Warn("Failed to prune old reports", "error", err)
		}
	}
	return path, nil
}

// LoadReport reads a run report back from disk.
func (s *Storage) LoadReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports returns the stored reports, newest first.
func (s *Storage) ListReports() ([]*RunReport, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	reports := make([]*RunReport, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())
		report, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("Failed to load report", "path", path, "error", err)
			continue
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.After(reports[j].StartTime)
	})
	return reports, nil
}

func (s *Storage) pruneOldReports() error {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return err
	}
	type candidate struct {
		name  string
		mtime int64
	}
	files := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: entry.Name(), mtime: info.ModTime().UnixNano()})
	}
	if len(files) <= s.keepLastN {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mtime > files[j].mtime })
	for _, f := range files[s.keepLastN:] {
		path := filepath.Join(s.outputDir, f.name)
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to delete old report", "path", path, "error", err)
		} else {
			s.logger.Debug("Deleted old report", "path", path)
		}
	}
	return nil
}
