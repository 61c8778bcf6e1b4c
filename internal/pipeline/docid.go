package pipeline

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9_]`)
	slugRunRe     = regexp.MustCompile(`_+`)
)

// Slugify lowercases s and collapses everything outside [a-z0-9] into single
// underscores.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRe.ReplaceAllString(s, "_")
	s = slugRunRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// DocID derives a stable document id from protocol, version and the file
// bytes, e.g. "emmc_5_1_3f2a9c01". The same file ingested under the same
// protocol and version always maps to the same id.
func DocID(protocol, version string, data []byte) string {
	prefix := Slugify(protocol + "_" + version)
	if prefix == "" {
		prefix = "doc"
	}
	return prefix + "_" + ContentHashHex(data)[:8]
}
