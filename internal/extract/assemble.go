package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
)

// Warning flags a record that assembled but will likely be rejected or
// degraded further down the pipeline.
type Warning string

// WarnNoLyrics marks a record where both lyric renderings are empty.
const WarnNoLyrics Warning = "no_lyrics"

// Fields are the raw values pulled from a detail page. Empty strings mean the
// value was not found.
type Fields struct {
	Title       string
	Reciter     string
	Poet        string
	LyricsRoman string
	LyricsUrdu  string
	MediaLink   string
	// SkipKey leaves Record.TitleKey empty.
	SkipKey bool
}

// Assembly is the outcome of a successful assembly.
type Assembly struct {
	Record   crawler.Record
	Warnings []Warning
}

// Assemble validates fields against the page context and builds the record.
// It returns an error wrapping crawler.ErrMissingRequiredField when the id,
// title or source URL is missing; no partial record is ever returned.
func Assemble(page crawler.RawPage, fields Fields) (Assembly, error) {
	if strings.TrimSpace(page.URL) == "" {
		return Assembly{}, fmt.Errorf("%w: source url", crawler.ErrMissingRequiredField)
	}

	id, err := resolveID(page)
	if err != nil {
		return Assembly{}, err
	}

	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return Assembly{}, fmt.Errorf("%w: title for id=%d", crawler.ErrMissingRequiredField, id)
	}

	reciter := strings.TrimSpace(fields.Reciter)
	if reciter == "" {
		reciter = strings.TrimSpace(page.ReciterHint)
	}

	record := crawler.Record{
		ID:          id,
		Title:       title,
		Reciter:     optional(reciter),
		Poet:        optional(strings.TrimSpace(fields.Poet)),
		Category:    optional(strings.TrimSpace(page.Category)),
		LyricsRoman: optional(fields.LyricsRoman),
		LyricsUrdu:  optional(fields.LyricsUrdu),
		MediaLink:   optional(strings.TrimSpace(fields.MediaLink)),
		SourceURL:   page.URL,
	}
	if !fields.SkipKey {
		record.TitleKey = phonetic.Key(title)
	}

	out := Assembly{Record: record}
	if !record.HasLyrics() {
		out.Warnings = append(out.Warnings, WarnNoLyrics)
	}
	return out, nil
}

func resolveID(page crawler.RawPage) (int64, error) {
	id, found, err := crawler.ParseDetailID(page.URL)
	if err == nil && found {
		return id, nil
	}
	if page.IDCandidate > 0 {
		return page.IDCandidate, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: id in %s: %w", crawler.ErrMissingRequiredField, page.URL, err)
	}
	return 0, fmt.Errorf("%w: id in %s", crawler.ErrMissingRequiredField, page.URL)
}

// optional maps blank values to nil. Non-blank values are kept verbatim.
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// IsDrop reports whether err means the page can never yield a record.
func IsDrop(err error) bool {
	return errors.Is(err, crawler.ErrMissingRequiredField)
}
