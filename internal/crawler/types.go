package crawler

import (
	"net/http"
	"time"
)

// Target is a detail page discovered on a category listing, together with the
// context carried over from that listing.
type Target struct {
	URL         string `json:"url"`
	Category    string `json:"category,omitempty"`
	ReciterHint string `json:"reciter_hint,omitempty"`
	TitleHint   string `json:"title_hint,omitempty"`
	// IDCandidate is the id parsed from the listing link; 0 means unparsed.
	IDCandidate int64 `json:"id_candidate,omitempty"`
}

// RawPage is a fetched detail page plus its discovery context. It is consumed
// once by the extraction pipeline.
type RawPage struct {
	URL         string
	StatusCode  int
	Body        []byte
	Category    string
	ReciterHint string
	TitleHint   string
	IDCandidate int64
}

// PageFromTarget pairs a fetched body with the context of the target it came from.
func PageFromTarget(target Target, resp FetchResponse) RawPage {
	pageURL := resp.URL
	if pageURL == "" {
		pageURL = target.URL
	}
	return RawPage{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Body:        resp.Body,
		Category:    target.Category,
		ReciterHint: target.ReciterHint,
		TitleHint:   target.TitleHint,
		IDCandidate: target.IDCandidate,
	}
}

// Record is one kalaam as extracted from a detail page. Optional fields are nil
// when absent, never pointers to empty strings.
type Record struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Reciter     *string   `json:"reciter,omitempty"`
	Poet        *string   `json:"poet,omitempty"`
	Category    *string   `json:"masaib,omitempty"`
	LyricsRoman *string   `json:"lyrics_eng,omitempty"`
	LyricsUrdu  *string   `json:"lyrics_urdu,omitempty"`
	MediaLink   *string   `json:"yt_link,omitempty"`
	SourceURL   string    `json:"source_url"`
	TitleKey    string    `json:"title_normalized,omitempty"`
	FetchedAt   time.Time `json:"fetched_at,omitzero"`
}

// HasLyrics reports whether at least one lyric rendering is present.
func (r Record) HasLyrics() bool {
	return r.LyricsRoman != nil || r.LyricsUrdu != nil
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// QueueItem wraps a target ready to be processed by a worker.
type QueueItem struct {
	Target    Target
	Attempt   int
	Submitted int64
}
