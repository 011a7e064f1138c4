package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// NormalizeURL standardizes a URL to avoid duplicates.
// It lowercases the scheme and host, removes default ports, and sorts query parameters.
// It also removes fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseDetailID reads the numeric id query parameter of a detail URL such as
// details_content.php?id=1234. The boolean is false when the parameter is
// absent; a present but non-numeric or negative value yields ErrMalformedID.
func ParseDetailID(rawURL string) (int64, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false, fmt.Errorf("%w: parse url: %w", ErrMalformedID, err)
	}
	values, ok := u.Query()["id"]
	if !ok || len(values) == 0 {
		return 0, false, nil
	}
	raw := strings.TrimSpace(values[0])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, true, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}
	return id, true, nil
}
