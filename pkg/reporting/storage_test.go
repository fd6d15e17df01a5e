package reporting

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *Logger {
	return NewLogger(LoggerConfig{
		Level:  LogLevelError,
		Format: LogFormatJSON,
		Output: io.Discard,
	})
}

func sampleReport(runID string, start time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		Kind:      RunKindDetect,
		StartTime: start,
		EndTime:   start.Add(time.Minute),
		Duration:  "1m0s",
		Success:   true,
		Carriers:  42,
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 10, testLogger())
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	path, err := storage.SaveReport(sampleReport("run-1", start))
	require.NoError(t, err)
	assert.Equal(t, "detect-20240601-120000-run-1.json", filepath.Base(path))

	loaded, err := storage.LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, RunKindDetect, loaded.Kind)
	assert.Equal(t, 42, loaded.Carriers)
	assert.True(t, loaded.Success)
}

func TestListReportsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 10, testLogger())
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := storage.SaveReport(sampleReport(id, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	reports, err := storage.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "c", reports[0].RunID)
	assert.Equal(t, "a", reports[2].RunID)
}

func TestPruneKeepsMostRecent(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, 2, testLogger())
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		_, err := storage.SaveReport(sampleReport(id, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		// Distinct mtimes so prune order is stable.
		time.Sleep(10 * time.Millisecond)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	reports, err := storage.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "d", reports[0].RunID)
	assert.Equal(t, "c", reports[1].RunID)
}

func TestNewStorageCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	_, err := NewStorage(dir, 5, testLogger())
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
