package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/pkg/reporting"
	"github.com/fleetsight/fleetsight/pkg/socrata"
	"github.com/fleetsight/fleetsight/pkg/store"
)

func testLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelError,
		Format: reporting.LogFormatJSON,
		Output: io.Discard,
	})
}

func newTestOrchestrator(t *testing.T, handler http.Handler) (*Orchestrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.NewWithDB(db, testLogger())
	client := socrata.New(socrata.Config{
		BaseURL:   srv.URL,
		PageSize:  100,
		PagePause: 1,
		Retries:   1,
	}, testLogger())
	return New(st, client, testLogger()), mock
}

func TestRunSeedStageWithCarriers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+CensusResource+".json" || r.URL.Query().Get("$offset") != "0" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"dot_number":"100","legal_name":"ACME","prior_revoke_flag":"Y"}]`)
	})
	orch, mock := newTestOrchestrator(t, handler)

	mock.ExpectExec(`INSERT INTO "SyncRun"`).
		WithArgs(sqlmock.AnyArg(), "run1_census_seeds", "census_seeds", store.SyncStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "FmcsaCarrier"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "SyncRun"`).
		WithArgs(store.SyncStatusDone, 1, nil, "run1_census_seeds").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Expansion stage over the single seed.
	mock.ExpectExec(`INSERT INTO "SyncRun"`).
		WithArgs(sqlmock.AnyArg(), "run1_census_expand", "census_expand", store.SyncStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE "dotNumber" = ANY`).
		WillReturnRows(sqlmock.NewRows([]string{
			"phone", "phyStreet", "phyCity", "phyState", "companyOfficer1", "companyOfficer2",
		}))
	mock.ExpectExec(`UPDATE "SyncRun"`).
		WithArgs(store.SyncStatusDone, 0, nil, "run1_census_expand").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Crash and inspection stages see the seed DOT scope. The server has no
	// rows for them, so only the SyncRun transitions hit the database.
	for _, dataset := range []string{"crashes", "inspections"} {
		mock.ExpectExec(`INSERT INTO "SyncRun"`).
			WithArgs(sqlmock.AnyArg(), "run1_"+dataset, dataset, store.SyncStatusRunning).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "SyncRun"`).
			WithArgs(store.SyncStatusDone, 0, nil, "run1_"+dataset).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	results := orch.Run(context.Background(), "run1", Options{ExpandHops: 1})
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NoError(t, r.Err, "stage %s", r.Dataset)
	}
	assert.Equal(t, "census_seeds", results[0].Dataset)
	assert.Equal(t, 1, results[0].Rows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunContinuesAfterStageFailure(t *testing.T) {
	// Every fetch fails; the seed stage is marked failed and, with no scope,
	// the later stages never start.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	orch, mock := newTestOrchestrator(t, handler)

	mock.ExpectExec(`INSERT INTO "SyncRun"`).
		WithArgs(sqlmock.AnyArg(), "run2_census_seeds", "census_seeds", store.SyncStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "SyncRun"`).
		WithArgs(store.SyncStatusFailed, 0, sqlmock.AnyArg(), "run2_census_seeds").
		WillReturnResult(sqlmock.NewResult(0, 1))

	results := orch.Run(context.Background(), "run2", Options{ExpandHops: 1})
	require.Len(t, results, 1)
	assert.Equal(t, "census_seeds", results[0].Dataset)
	assert.Error(t, results[0].Err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkInt64(t *testing.T) {
	chunks := chunkInt64([]int64{1, 2, 3, 4, 5}, 2)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int64{1, 2}, chunks[0])
	assert.Equal(t, []int64{5}, chunks[2])
	assert.Nil(t, chunkInt64(nil, 2))
}

func TestCapStrings(t *testing.T) {
	list := []string{"a", "b", "c"}
	assert.Len(t, capStrings(list, 2), 2)
	assert.Len(t, capStrings(list, 5), 3)
}
