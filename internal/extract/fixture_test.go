package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/JakeFAU/kalaam-crawler/internal/tree"
)

const detailURL = "https://nohayonline.com/details_content.php?id=1234"

// detailPage mimics a nohayonline.com detail page.
func detailPage() string {
	return "<html><head><title>Nohay Online</title></head><body>" +
		`<div class="header"><a href="/">Home</a> | <a href="/details_masaib.php">Masaib</a></div>` +
		`<div class="content">` +
		"<h2>  Ya Hussain <small>new</small></h2>" +
		"<p><b>Nohakhan:</b> Nadeem Sarwar</p>" +
		"<p>Shayar: Rehan Azmi</p>" +
		`<a href="https://www.youtube.com/watch?v=abc123">Watch on YouTube</a>` +
		"<div id=\"etext\">Ya Hussain<br>Ya Hussain<BR/>\r\n\tMaula</div>" +
		"<div id=\"utext\">یا حسین<br>\n\n\nمولا</div>" +
		"</div></body></html>"
}

func parseTree(t *testing.T, src string) *tree.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return tree.FromHTML(doc)
}
