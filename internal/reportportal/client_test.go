package reportportal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/huangsam/coverwatch/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var since = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(contract.ReportPortalInstance{
		Name:     "primary",
		Endpoint: srv.URL,
		Project:  "testviper",
		APIKey:   "secret",
		Timeout:  5,
	}, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func launch(id int64, name string, start any, attrs ...string) map[string]any {
	var list []map[string]string
	for i := 0; i+1 < len(attrs); i += 2 {
		list = append(list, map[string]string{"key": attrs[i], "value": attrs[i+1]})
	}
	return map[string]any{
		"id":        id,
		"name":      name,
		"status":    "PASSED",
		"startTime": start,
		"statistics": map[string]any{
			"executions": map[string]int{"total": 10, "passed": 9, "failed": 1},
		},
		"attributes": list,
	}
}

func TestFetchLaunchesSince(t *testing.T) {
	newest := since.Add(48 * time.Hour)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/testviper/launch", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "startTime,desc", r.URL.Query().Get("page.sort"))
		assert.Equal(t, strconv.FormatInt(since.UnixMilli(), 10), r.URL.Query().Get("filter.gte.startTime"))

		writeJSON(t, w, map[string]any{
			"content": []any{
				launch(2, "nightly", newest.UnixMilli(), "tv_coverage_component", "xradio", "tv_coverage_percentage", "78.5%"),
				launch(1, "nightly", since.Add(time.Hour).Format(time.RFC3339Nano)),
				launch(0, "ancient", since.Add(-time.Hour).UnixMilli()),
			},
			"page": map[string]int{"number": 1, "totalPages": 1},
		})
	})

	launches, err := client.FetchLaunchesSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, launches, 2)

	first := launches[0]
	assert.Equal(t, int64(2), first.ID)
	assert.True(t, newest.Equal(first.StartTime))
	assert.Equal(t, "xradio", first.Attributes["tv_coverage_component"])
	assert.Equal(t, 10, first.Statistics.Total)
	assert.Equal(t, 1, first.Statistics.Failed)
	assert.Equal(t, "primary", first.Endpoint)

	assert.True(t, since.Add(time.Hour).Equal(launches[1].StartTime))
}

func TestFetchLaunchesSincePaginates(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		page, _ := strconv.Atoi(r.URL.Query().Get("page.page"))
		content := []any{launch(int64(page*10), "run", since.Add(time.Duration(10-page)*time.Hour).UnixMilli())}
		if page == 1 {
			content = append(content, launch(11, "run", since.Add(8*time.Hour).UnixMilli()))
		}
		writeJSON(t, w, map[string]any{"content": content, "page": map[string]int{"number": page, "totalPages": 2}})
	})
	client.pageSize = 2

	launches, err := client.FetchLaunchesSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, launches, 3)
}

func TestFetchLaunchesSinceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: "rejected the credentials"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "HTTP 500: boom"},
		{name: "bad json", status: http.StatusOK, body: "{", wantErr: "failed to decode launch response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.FetchLaunchesSince(context.Background(), since)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFetchCurrentCoverage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"content": []any{
				launch(3, "nightly", since.Add(3*time.Hour).UnixMilli(), "tv_coverage_component", "graphviper", "tv_coverage_percentage", "64%"),
				launch(2, "nightly", since.Add(2*time.Hour).UnixMilli(), "tv_coverage_component", "XRadio", "tv_coverage_percentage", "81.2%"),
				launch(1, "nightly", since.Add(time.Hour).UnixMilli(), "tv_coverage_component", "xradio", "tv_coverage_percentage", "70%"),
			},
		})
	})

	pct, ok, err := client.FetchCurrentCoverage(context.Background(), "xradio", since)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 81.2, pct, 1e-9)

	_, ok, err = client.FetchCurrentCoverage(context.Background(), "astrohack", since)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchTestItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/testviper/item", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("filter.eq.launchId"))
		writeJSON(t, w, map[string]any{
			"content": []any{
				map[string]any{"id": 1, "name": "tests/test_io.py", "type": "SUITE", "status": "FAILED", "launchId": 42, "hasChildren": true},
				map[string]any{"id": 2, "name": "test_read", "type": "STEP", "status": "PASSED", "launchId": 42, "startTime": "2026-03-02T10:00:00Z"},
				map[string]any{"id": 3, "name": "test_write", "type": "STEP", "status": "FAILED", "launchId": 42},
				map[string]any{"id": 4, "name": "test_other", "type": "STEP", "status": "PASSED", "launchId": 7},
			},
		})
	})

	items, err := client.FetchTestItems(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "test_read", items[0].Name)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), items[0].Start)
	assert.Equal(t, "FAILED", items[1].Status)
}

func TestCheckConnection(t *testing.T) {
	ok := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page.size"))
		writeJSON(t, w, map[string]any{"content": []any{}, "page": map[string]int{"totalElements": 12}})
	})
	assert.NoError(t, ok.CheckConnection(context.Background()))

	denied := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.ErrorIs(t, denied.CheckConnection(context.Background()), ErrUnauthorized)
}

func TestCheckConnectionHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, client.CheckConnection(ctx))
}

func TestNewSources(t *testing.T) {
	disabled := false
	cfg := &contract.Config{ReportPortal: []contract.ReportPortalInstance{
		{Name: "backup", Endpoint: "http://b", Project: "p", Priority: 2},
		{Name: "off", Endpoint: "http://o", Project: "p", Enabled: &disabled},
		{Name: "primary", Endpoint: "http://a", Project: "p", Priority: 1},
	}}

	sources := NewSources(cfg, nil)
	require.Len(t, sources, 2)
	assert.Equal(t, "primary", sources[0].Name())
	assert.Equal(t, "http://b", sources[1].Endpoint())
	assert.Equal(t, "p", sources[1].Project())
}

func TestRPTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{in: `1772323200000`, want: time.UnixMilli(1772323200000).UTC()},
		{in: `"1772323200000"`, want: time.UnixMilli(1772323200000).UTC()},
		{in: `"2026-03-01T00:00:00.5Z"`, want: time.Date(2026, 3, 1, 0, 0, 0, 500_000_000, time.UTC)},
		{in: `null`},
		{in: `""`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v rpTime
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.True(t, tt.want.Equal(v.Time))
		})
	}

	var bad rpTime
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}
