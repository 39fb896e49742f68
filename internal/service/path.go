package service

import (
	"strings"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// versionQuery marks a cache-busting query suffix appended by the web build.
const versionQuery = "?v="

// LogicalPath maps an absolute request URL onto a manifest key relative to
// origin. The origin itself, a fragment on the origin root, and the empty
// path all resolve to RootPath. Anything from ?v= onwards is dropped. URLs
// outside origin are not managed and report false.
func LogicalPath(origin, rawURL string) (string, bool) {
	if rawURL == origin {
		return domain.RootPath, true
	}

	prefix := origin + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}

	key := rawURL[len(prefix):]
	if i := strings.Index(key, versionQuery); i != -1 {
		key = key[:i]
	}
	if key == "" || strings.HasPrefix(rawURL, origin+"/#") {
		return domain.RootPath, true
	}
	return key, true
}

// CacheKey returns the canonical content-cache key for a logical path, so
// every spelling of a request for that path shares one entry.
func CacheKey(origin, path string) string {
	if path == domain.RootPath {
		return origin + "/"
	}
	return origin + "/" + path
}
