package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/pkg/reporting"
)

func testLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelError,
		Format: reporting.LogFormatJSON,
		Output: io.Discard,
	})
}

func newTestClient(baseURL string, pageSize int) *Client {
	return New(Config{
		BaseURL:   baseURL,
		PageSize:  pageSize,
		PagePause: 1, // effectively no pacing in tests
		Retries:   1,
	}, testLogger())
}

func TestFetchPageQueryParameters(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"$limit":  q.Get("$limit"),
			"$offset": q.Get("$offset"),
			"$order":  q.Get("$order"),
			"$where":  q.Get("$where"),
			"$select": q.Get("$select"),
		}
		fmt.Fprint(w, `[{"dot_number":"123"}]`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1000)
	rows, err := c.FetchPage(context.Background(), "az4n-8mr2", Query{
		Select: "dot_number,legal_name",
		Where:  "prior_revoke_flag='Y'",
	}, 2000)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "123", rows[0]["dot_number"])

	assert.Equal(t, "1000", gotQuery["$limit"])
	assert.Equal(t, "2000", gotQuery["$offset"])
	assert.Equal(t, ":id", gotQuery["$order"])
	assert.Equal(t, "prior_revoke_flag='Y'", gotQuery["$where"])
	assert.Equal(t, "dot_number,legal_name", gotQuery["$select"])
}

func TestFetchAllPagination(t *testing.T) {
	// Three pages of 2, then a short final page of 1.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("$offset"))
		total := 7
		pageSize := 2
		var rows []Row
		for i := offset; i < total && i < offset+pageSize; i++ {
			rows = append(rows, Row{"id": fmt.Sprintf("%d", i)})
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2)
	rows, err := c.FetchAll(context.Background(), "res", Query{}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 7)
	assert.Equal(t, "0", rows[0]["id"])
	assert.Equal(t, "6", rows[6]["id"])
}

func TestFetchAllMaxRowsTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]Row, 5)
		for i := range rows {
			rows[i] = Row{"id": fmt.Sprintf("%d", i)}
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 5)
	rows, err := c.FetchAll(context.Background(), "res", Query{}, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestFetchPageRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"ok":"1"}]`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, PageSize: 10, PagePause: 1, Retries: 2}, testLogger())
	rows, err := c.FetchPage(context.Background(), "res", Query{}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, attempts)
}

func TestFetchPageExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 10)
	_, err := c.FetchPage(context.Background(), "res", Query{}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestConfigDefaults(t *testing.T) {
	c := New(Config{}, testLogger())
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultPageSize, c.cfg.PageSize)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, defaultRetries, c.cfg.Retries)
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, "O''BRIEN TRUCKING", EscapeString("O'BRIEN TRUCKING"))
	assert.Equal(t, "'O''BRIEN'", QuoteString("O'BRIEN"))
	assert.Equal(t, "plain", EscapeString("plain"))
}

func TestInInt64(t *testing.T) {
	assert.Equal(t, "dot_number in(1,2,3)", InInt64("dot_number", []int64{1, 2, 3}))
	assert.Equal(t, "dot_number in()", InInt64("dot_number", nil))
}

func TestOrGroup(t *testing.T) {
	got := OrGroup([]string{"phone='5551234567'", "phone='5559990000'"})
	assert.Equal(t, "(phone='5551234567' OR phone='5559990000')", got)
}
