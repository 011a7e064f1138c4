package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/config"
	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/memory"
)

func strPtr(s string) *string { return &s }

func testConfig() config.Config {
	return config.Config{
		Search: config.SearchConfig{DefaultLimit: 20, MaxLimit: 50},
	}
}

func seededStore(t *testing.T) *memory.RecordStore {
	t.Helper()
	store := memory.NewRecordStore()
	records := []crawler.Record{
		{
			ID:          1234,
			Title:       "Ya Hussain",
			Reciter:     strPtr("Nadeem Sarwar"),
			LyricsRoman: strPtr("ya hussain\nya hussain"),
			SourceURL:   "https://nohayonline.com/details_content.php?id=1234",
		},
		{
			ID:         77,
			Title:      "Alvida",
			LyricsUrdu: strPtr("الوداع"),
			SourceURL:  "https://nohayonline.com/details_content.php?id=77",
		},
	}
	for _, record := range records {
		record.TitleKey = phonetic.Key(record.Title)
		require.NoError(t, store.Upsert(context.Background(), record, time.Unix(100, 0)))
	}
	return store
}

func serve(t *testing.T, handler http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	server := NewServer(memory.NewRecordStore(), testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_RequestIDPropagates(t *testing.T) {
	t.Parallel()

	server := NewServer(memory.NewRecordStore(), testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/healthz", map[string]string{"X-Request-ID": "req-1"})

	require.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		store  RecordReader
		status int
	}{
		{name: "no pinger", store: memory.NewRecordStore(), status: http.StatusOK},
		{name: "ping ok", store: &fakeStore{}, status: http.StatusOK},
		{name: "ping fails", store: &fakeStore{pingErr: errors.New("down")}, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := NewServer(tt.store, testConfig(), zap.NewNop())
			rec := serve(t, server.Handler(), "/readyz", nil)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	server := NewServer(memory.NewRecordStore(), testConfig(), zap.NewNop())
	_ = serve(t, server.Handler(), "/healthz", nil)
	rec := serve(t, server.Handler(), "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_GetKalaam(t *testing.T) {
	t.Parallel()

	server := NewServer(seededStore(t), testConfig(), zap.NewNop())

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "found", path: "/v1/kalaam/1234", status: http.StatusOK, body: `"title":"Ya Hussain"`},
		{name: "missing", path: "/v1/kalaam/999", status: http.StatusNotFound, body: "kalaam not found"},
		{name: "not a number", path: "/v1/kalaam/abc", status: http.StatusBadRequest, body: "invalid id"},
		{name: "negative", path: "/v1/kalaam/-4", status: http.StatusBadRequest, body: "invalid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, server.Handler(), tt.path, nil)
			require.Equal(t, tt.status, rec.Code)
			require.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestServer_GetKalaamOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	server := NewServer(seededStore(t), testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/v1/kalaam/77", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "Alvida", payload["title"])
	require.Contains(t, payload, "lyrics_urdu")
	require.NotContains(t, payload, "lyrics_eng")
	require.NotContains(t, payload, "reciter")
}

func TestServer_GetKalaamStoreFailure(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeStore{err: errors.New("boom")}, testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/v1/kalaam/1", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestServer_SearchMatchesPhoneticKey(t *testing.T) {
	t.Parallel()

	server := NewServer(seededStore(t), testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/v1/kalaam/search?q=%20%20ya%20HUSSAIN%20", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ya HUSSAIN", resp.Query)
	require.Equal(t, phonetic.Key("Ya Hussain"), resp.Key)
	require.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	require.Equal(t, int64(1234), resp.Results[0].ID)
}

func TestServer_SearchNoResultsIsEmptyList(t *testing.T) {
	t.Parallel()

	server := NewServer(seededStore(t), testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/v1/kalaam/search?q=zzzz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestServer_SearchLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     string
		status    int
		wantLimit int
	}{
		{name: "default", query: "q=matam", status: http.StatusOK, wantLimit: 20},
		{name: "explicit", query: "q=matam&limit=5", status: http.StatusOK, wantLimit: 5},
		{name: "capped", query: "q=matam&limit=500", status: http.StatusOK, wantLimit: 50},
		{name: "zero", query: "q=matam&limit=0", status: http.StatusBadRequest},
		{name: "garbage", query: "q=matam&limit=abc", status: http.StatusBadRequest},
		{name: "missing query", query: "limit=5", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{}
			server := NewServer(store, testConfig(), zap.NewNop())
			rec := serve(t, server.Handler(), "/v1/kalaam/search?"+tt.query, nil)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.Equal(t, tt.wantLimit, store.lastLimit())
			}
		})
	}
}

func TestServer_SearchStoreFailure(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeStore{err: errors.New("boom")}, testConfig(), zap.NewNop())
	rec := serve(t, server.Handler(), "/v1/kalaam/search?q=matam", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_APIKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	server := NewServer(seededStore(t), cfg, zap.NewNop())

	rec := serve(t, server.Handler(), "/v1/kalaam/1234", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, server.Handler(), "/v1/kalaam/1234", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, server.Handler(), "/v1/kalaam/1234?api_key=secret", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, server.Handler(), "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	server := NewServer(memory.NewRecordStore(), testConfig(), zap.NewNop())
	handler := server.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := serve(t, handler, "/", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}

type fakeStore struct {
	mu      sync.Mutex
	limit   int
	err     error
	pingErr error
}

func (f *fakeStore) Get(context.Context, int64) (crawler.Record, error) {
	if f.err != nil {
		return crawler.Record{}, f.err
	}
	return crawler.Record{}, crawler.ErrNotFound
}

func (f *fakeStore) Search(_ context.Context, _ string, limit int) ([]crawler.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeStore) lastLimit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit
}
