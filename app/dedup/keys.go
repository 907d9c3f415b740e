package dedup

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hann12-34/discovr-ingest/app/textnorm"
)

// namespace scopes the stable event ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://discovr.app/events"))

type Keys struct {
	DedupKey   string
	ContentKey string
	URLBase    string // URL key without its query, "" when the event has no URL
}

// HasURL reports whether DedupKey is URL based.
func (k Keys) HasURL() bool {
	return k.URLBase != ""
}

// ComputeKeys derives all identity keys for an event.
func ComputeKeys(rawURL, title, venueName string, start time.Time) Keys {
	keys := Keys{ContentKey: ContentKey(title, venueName, start)}

	if key, base, ok := NormalizeURL(rawURL); ok {
		keys.DedupKey = key
		keys.URLBase = base
		return keys
	}

	keys.DedupKey = keys.ContentKey
	return keys
}

// ContentKey is the composite identity of an event without a URL.
func ContentKey(title, venueName string, start time.Time) string {
	return strings.Join([]string{
		textnorm.Key(title),
		textnorm.Key(venueName),
		start.UTC().Format("2006-01-02"),
	}, "|")
}

// NormalizeURL returns the dedup key for rawURL and the same key without its
// query. The scheme is dropped so http and https collapse, the host is
// lower-cased, the fragment and trailing slashes are removed and query
// parameters are sorted.
func NormalizeURL(rawURL string) (key, base string, ok bool) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}

	base = strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/")

	key = base
	if u.RawQuery != "" {
		if q := u.Query().Encode(); q != "" {
			key = base + "?" + q
		}
	}

	return key, base, true
}

// StableID maps a dedup key to the event's id.
func StableID(dedupKey string) string {
	return uuid.NewSHA1(namespace, []byte(dedupKey)).String()
}
