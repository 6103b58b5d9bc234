package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"regexp"
)

// filenameCleaner collapses runs of non-alphanumeric characters into "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// HashString returns a stable SHA1 hex digest of s. Cached downloads use it
// as a filename when the URL itself yields no usable one.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// SafeFilenameFromURL derives the cache filename for a downloaded input.
// The query string usually carries the distinguishing parameters (dataset,
// date range, format), so it becomes the name after cleaning; when the URL
// does not parse or has no query, the whole URL is hashed instead. The result
// contains only alphanumerics and underscores.
func SafeFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return HashString(rawURL)
	}

	clean := filenameCleaner.ReplaceAllString(u.RawQuery, "_")
	if clean == "" {
		return HashString(rawURL)
	}

	return clean
}
