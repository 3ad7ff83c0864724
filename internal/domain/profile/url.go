package profile

import (
	"strconv"
	"strings"
)

// PathMarker identifies a personal profile URL.
const PathMarker = "linkedin.com/in/"

func IsProfileURL(raw string) bool {
	return strings.Contains(raw, PathMarker)
}

// NormalizeURL trims whitespace and trailing slashes. Matching stays case-sensitive.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// CacheKey is the cache key for a profile document read at the given generation.
func CacheKey(linkedinURL string, generation int64) string {
	return "profile:" + strconv.FormatInt(generation, 10) + ":" + linkedinURL
}

// GenerationKey holds the counter bumped on every write to a profile.
func GenerationKey(linkedinURL string) string {
	return "profile-gen:" + linkedinURL
}
