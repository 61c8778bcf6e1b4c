package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/specchunk/internal/doctree"
)

var (
	quotedRes = []*regexp.Regexp{
		regexp.MustCompile(`"([^"\n]{2,50})"`),
		regexp.MustCompile(`“([^”\n]{2,50})”`),
	}
	captionRe       = regexp.MustCompile(`^(?i:table|figure)\s+\d`)
	numberedLineRe  = regexp.MustCompile(`^\d+(\.\d+)*\.?\s`)
	tableRowTitleRe = regexp.MustCompile(`^\d+:`)
	trailingPunctRe = regexp.MustCompile(`[.,;:]\s*$`)
	contdSuffixRe   = regexp.MustCompile(`(?i)\s*\((?:cont['‘’]?d\.?|continued)\)\s*$`)
)

const (
	minSubtitleRunes = 5
	maxSubtitleRunes = 100
)

// DetectSubtitles returns up to limit secondary headings found in cleaned
// section text: quoted spans first, then short standalone lines that are
// followed by a line starting in lower case. Results are de-duplicated and
// keep discovery order. title, the section's own title, is never returned.
func DetectSubtitles(text, title string, limit int) []string {
	if limit <= 0 || text == "" {
		return nil
	}
	var out []string
	seen := map[string]bool{strings.ToLower(title): true}
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return len(out) >= limit
		}
		seen[key] = true
		out = append(out, s)
		return len(out) >= limit
	}

	type hit struct {
		at int
		s  string
	}
	var quoted []hit
	for _, re := range quotedRes {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			s := text[m[2]:m[3]]
			if strings.IndexFunc(s, unicode.IsLetter) < 0 {
				continue
			}
			quoted = append(quoted, hit{at: m[0], s: s})
		}
	}
	// Both quote styles interleave in discovery order.
	for i := 1; i < len(quoted); i++ {
		for j := i; j > 0 && quoted[j].at < quoted[j-1].at; j-- {
			quoted[j], quoted[j-1] = quoted[j-1], quoted[j]
		}
	}
	for _, q := range quoted {
		if add(q.s) {
			return out
		}
	}

	lines := strings.Split(text, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if isStandaloneHeading(lines[i]) && startsLower(lines[i+1]) {
			if add(lines[i]) {
				return out
			}
		}
	}
	return out
}

func isStandaloneHeading(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n < minSubtitleRunes || n > maxSubtitleRunes {
		return false
	}
	first, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(first) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	if strings.ContainsRune(".,;:!?", last) {
		return false
	}
	if captionRe.MatchString(line) || numberedLineRe.MatchString(line) {
		return false
	}
	return true
}

func startsLower(line string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(line))
	return unicode.IsLower(r)
}

// RecoverTitle looks for "num Title" at a line start within the first
// searchChars bytes of raw and returns Title when it reads like a heading
// rather than a table row or page reference.
func RecoverTitle(raw string, num doctree.Number, searchChars int) string {
	if num.IsZero() {
		return ""
	}
	if searchChars > 0 && len(raw) > searchChars {
		raw = raw[:searchChars]
	}
	re := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(num.String()) + `\.?[ \t]+([A-Z][^\n]*)$`)
	for _, m := range re.FindAllStringSubmatch(raw, -1) {
		title := strings.TrimSpace(m[1])
		title = contdSuffixRe.ReplaceAllString(title, "")
		title = trailingPunctRe.ReplaceAllString(title, "")
		title = strings.TrimSpace(title)
		if looksLikeTitle(title) {
			return title
		}
	}
	return ""
}

func looksLikeTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	if n < 3 || n > 80 {
		return false
	}
	if strings.IndexFunc(title, unicode.IsLetter) < 0 {
		return false
	}
	if strings.HasPrefix(title, "Page ") {
		return false
	}
	if tableRowTitleRe.MatchString(title) || strings.Count(title, ":") > 1 {
		return false
	}
	if n < 5 && strings.ToUpper(title) != title {
		return false
	}
	return true
}
