package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/config"
	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/extract"
	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/memory"
)

var site = map[string]string{
	"/details_masaib.php": `<html><body>
<a href="details_mb.php?text=Ashoor">Ashoor</a>
</body></html>`,
	"/details_mb.php?text=Ashoor": `<html><body><table>
<tr><th>Title</th><th>Nohakhan</th></tr>
<tr><td><a href="details_content.php?id=1">Ya Hussain</a></td><td>Nadeem Sarwar</td></tr>
<tr><td><a href="details_content.php?id=2">Khamosh</a></td><td>Ali Shanawar</td></tr>
</table></body></html>`,
	"/details_content.php?id=1": `<html><body><h2>Ya Hussain</h2>
<p><b>Nohakhan:</b> Nadeem Sarwar</p>
<div id="etext">Ya Hussain<br>Maula</div>
</body></html>`,
	"/details_content.php?id=2": `<html><body><h2>Khamosh</h2>
<p>Shayar: Rehan Azmi</p>
</body></html>`,
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.Query().Encode()
		}
		body, ok := site[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(startURL string) config.Config {
	return config.Config{
		Crawler: config.CrawlerConfig{
			StartURL:    startURL,
			Concurrency: 2,
			Parallelism: 2,
			UserAgent:   "kalaam-test",
			QueueDepth:  8,
		},
		HTTP:    config.HTTPConfig{TimeoutSeconds: 5},
		Extract: extract.DefaultConfig(),
		Search:  config.SearchConfig{DefaultLimit: 10, MaxLimit: 50},
	}
}

func TestCrawlStoresRecords(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	cfg := testConfig(srv.URL + "/details_masaib.php")
	cfg.Archive = config.ArchiveConfig{Enabled: true, Dir: t.TempDir(), ContentType: "text/html"}
	store := memory.NewRecordStore()
	a := NewWithStore(cfg, zap.NewNop(), store)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	summary, err := a.Crawl(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, summary.Discovery.Categories)
	require.Equal(t, 2, summary.Discovery.Targets)
	require.Equal(t, int64(1), summary.Pages.Stored)
	require.Equal(t, int64(1), summary.Pages.NoLyrics)
	require.Equal(t, int64(2), summary.Pages.Total())
	require.Equal(t, 1, store.Len())

	record, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Ya Hussain", record.Title)
	require.NotNil(t, record.Category)
	require.Equal(t, "Ashoor", *record.Category)
	require.NotNil(t, record.LyricsRoman)
	require.Nil(t, record.LyricsUrdu)

	entries, err := os.ReadDir(filepath.Join(cfg.Archive.Dir, "ashoor"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestCrawlCanceled(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	a := NewWithStore(testConfig(srv.URL+"/details_masaib.php"), zap.NewNop(), memory.NewRecordStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Crawl(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCrawlRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:1/")
	cfg.Extract.Strategy = "guess"
	a := NewWithStore(cfg, zap.NewNop(), memory.NewRecordStore())

	_, err := a.Crawl(context.Background())
	require.ErrorContains(t, err, "init extractor")
}

func TestExtractSinglePage(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t)
	a := NewWithStore(testConfig(srv.URL), zap.NewNop(), memory.NewRecordStore())

	assembly, err := a.Extract(context.Background(), srv.URL+"/details_content.php?id=1#lyrics", "Matam")
	require.NoError(t, err)
	require.Equal(t, int64(1), assembly.Record.ID)
	require.Equal(t, "Ya Hussain", assembly.Record.Title)
	require.NotNil(t, assembly.Record.Reciter)
	require.Equal(t, "Nadeem Sarwar", *assembly.Record.Reciter)
	require.NotNil(t, assembly.Record.Category)
	require.Equal(t, "Matam", *assembly.Record.Category)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	store := memory.NewRecordStore()
	a := NewWithStore(testConfig("http://example.com"), zap.NewNop(), store)
	lyrics := "Ya Hussain"
	require.NoError(t, store.Upsert(context.Background(), crawler.Record{
		ID:          5,
		Title:       "Ya Hussain",
		LyricsRoman: &lyrics,
		SourceURL:   "https://nohayonline.com/details_content.php?id=5",
		TitleKey:    phonetic.Key("Ya Hussain"),
	}, time.Unix(0, 0)))

	records, err := a.Search(context.Background(), "YA HUSSAIN", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(5), records[0].ID)

	_, err = a.Search(context.Background(), "!!!", 0)
	require.Error(t, err)
}

type limitStore struct {
	*memory.RecordStore
	limits []int
}

func (s *limitStore) Search(ctx context.Context, key string, limit int) ([]crawler.Record, error) {
	s.limits = append(s.limits, limit)
	return s.RecordStore.Search(ctx, key, limit)
}

func TestSearchClampsLimit(t *testing.T) {
	t.Parallel()

	store := &limitStore{RecordStore: memory.NewRecordStore()}
	a := NewWithStore(testConfig("http://example.com"), zap.NewNop(), store)

	for _, limit := range []int{0, 7, 50, 500} {
		_, err := a.Search(context.Background(), "Ya Hussain", limit)
		require.NoError(t, err)
	}
	require.Equal(t, []int{10, 7, 50, 50}, store.limits)
}

func TestNewInMemoryWithoutDSN(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig("http://example.com"), nil)
	require.NoError(t, err)
	defer a.Close()
	_, ok := a.Store().(*memory.RecordStore)
	require.True(t, ok)
	require.NotNil(t, a.Server().Handler())
}
