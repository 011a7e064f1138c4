package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/memory"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Imam Hussain (a.s)", want: "imam-hussain-a-s"},
		{in: "  Bibi Sakina  ", want: "bibi-sakina"},
		{in: "", want: "uncategorized"},
		{in: "../..", want: "uncategorized"},
		{in: "حضرت عباس", want: "حضرت-عباس"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestArchiveWritesContentAddressedPath(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	a := New(blobs, "")
	page := crawler.RawPage{URL: "https://nohayonline.com/details_content.php?id=1", Category: "Imam Hussain", Body: []byte("hello world")}

	uri, err := a.Archive(context.Background(), page)
	require.NoError(t, err)
	want := "imam-hussain/b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9.html"
	require.Equal(t, "memory://"+want, uri)

	stored, ok := blobs.Object(want)
	require.True(t, ok)
	require.Equal(t, "hello world", string(stored))
}

type failingBlobs struct{}

func (failingBlobs) PutObject(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestArchivePropagatesErrors(t *testing.T) {
	t.Parallel()

	_, err := New(failingBlobs{}, "text/html").Archive(context.Background(), crawler.RawPage{URL: "u"})
	require.ErrorContains(t, err, "disk full")
}
