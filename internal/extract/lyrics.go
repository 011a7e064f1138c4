package extract

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// stanzaMarker stands in for a stanza break while doubled newlines collapse.
// It is stripped from the input first so it can never be confused with text.
const stanzaMarker = "\x00"

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\b[^>]*>`)
	newlineRun   = regexp.MustCompile(`\n{3,}`)
)

// ExtractBlock returns the literal inner markup of the element whose id is
// blockID, exactly as it appears in body. The boolean is false when no such
// element exists.
func ExtractBlock(body []byte, blockID string) (string, bool) {
	z := html.NewTokenizer(bytes.NewReader(body))
	var (
		inside bool
		tag    string
		depth  int
		buf    bytes.Buffer
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// an unterminated container runs to the end of the document
			return buf.String(), inside
		}
		if !inside {
			if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
				name, hasAttr := z.TagName()
				if hasAttr && hasID(z, blockID) {
					if voidElements[string(name)] {
						return "", true
					}
					inside, tag, depth = true, string(name), 1
				}
			}
			continue
		}
		// TagName lowercases the token buffer in place, so keep the raw bytes first
		raw := append([]byte(nil), z.Raw()...)
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			// browsers ignore the slash on non-void elements, so <div/> still opens one
			if name, _ := z.TagName(); string(name) == tag {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth--
				if depth == 0 {
					return buf.String(), true
				}
			}
		}
		buf.Write(raw)
	}
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func hasID(z *html.Tokenizer, id string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" && string(val) == id {
			return true
		}
		if !more {
			return false
		}
	}
}

func replaceLineBreaks(s string) string {
	return lineBreakTag.ReplaceAllString(s, "\n")
}

// CleanRoman applies the Roman-script profile: line-break tags become
// newlines, tab-terminated breaks and tabs are stripped and CRLF becomes LF.
// The result is not trimmed.
func CleanRoman(markup string) string {
	s := replaceLineBreaks(markup)
	s = strings.ReplaceAll(s, "\t\n", "")
	s = strings.ReplaceAll(s, "\t", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return s
}

// CleanUrdu applies the Urdu-script profile. After line-break tags become
// newlines and tabs and CRLF are normalized, a run of three or more newlines
// is a stanza break and becomes exactly one blank line, a doubled newline is
// accidental and collapses to one, and a single newline is kept. The result is
// not trimmed.
func CleanUrdu(markup string) string {
	s := replaceLineBreaks(markup)
	s = strings.ReplaceAll(s, "\t", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, stanzaMarker, "")
	s = newlineRun.ReplaceAllString(s, stanzaMarker)
	s = strings.ReplaceAll(s, "\n\n", "\n")
	s = strings.ReplaceAll(s, stanzaMarker, "\n\n")
	return s
}
