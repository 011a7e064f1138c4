// Package archive retains raw detail pages under a content-addressed path
// grouped by category.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
)

const uncategorized = "uncategorized"

// Archiver writes raw pages to a blob store.
type Archiver struct {
	blobs       crawler.BlobStore
	contentType string
}

// New returns an Archiver backed by blobs.
func New(blobs crawler.BlobStore, contentType string) *Archiver {
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	return &Archiver{blobs: blobs, contentType: contentType}
}

// Archive stores page.Body and returns the blob URI.
func (a *Archiver) Archive(ctx context.Context, page crawler.RawPage) (string, error) {
	path := Path(page.Category, page.Body)
	uri, err := a.blobs.PutObject(ctx, path, a.contentType, page.Body)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", page.URL, err)
	}
	return uri, nil
}

// Path is <category-slug>/<sha256 of body>.html.
func Path(category string, body []byte) string {
	sum := sha256.Sum256(body)
	return Slug(category) + "/" + hex.EncodeToString(sum[:]) + ".html"
}

// Slug lowercases category and replaces every run of characters other than
// letters and digits with a single hyphen.
func Slug(category string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(category) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return uncategorized
	}
	return b.String()
}
