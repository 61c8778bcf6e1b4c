package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/specchunk/internal/doctree"
	"github.com/dgallion1/specchunk/internal/parser"
)

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	spaceRunRe = regexp.MustCompile(`[ \t]+`)

	pageNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`^(?i:page\s+)?\d{1,4}(?i:\s+of\s+\d{1,4})?$`),
		regexp.MustCompile(`^[-–—]\s*\d{1,4}\s*[-–—]$`),
	}
	contdRe          = regexp.MustCompile(`(?i)\((?:cont['‘’]?d\.?|continued)\)`)
	isolatedHeaderRe = regexp.MustCompile(`^\d+(\.\d+)+\s+[A-Z_]+(\s+\[[\d:]+\])?$`)
)

const maxContdLineRunes = 80

// Boilerplate is the set of running headers and footers of a document,
// keyed by their digit-normalised form.
type Boilerplate map[string]bool

// DetectBoilerplate finds lines that recur on at least ratio of the
// non-empty pages, and on at least minPages of them. Digits are ignored
// when comparing, so "JESD84-B51 43" and "JESD84-B51 44" are the same line.
func DetectBoilerplate(pages []parser.Page, ratio float64, minPages int) Boilerplate {
	counts := make(map[string]int)
	nonEmpty := 0
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		nonEmpty++
		seen := make(map[string]bool)
		for _, line := range strings.Split(p.Text, "\n") {
			key := boilerplateKey(line)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	need := int(ratio*float64(nonEmpty) + 0.999999)
	if need < minPages {
		need = minPages
	}
	bp := make(Boilerplate)
	if nonEmpty < minPages {
		return bp
	}
	for key, n := range counts {
		if n >= need {
			bp[key] = true
		}
	}
	return bp
}

func boilerplateKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	line = digitRunRe.ReplaceAllString(line, "#")
	line = spaceRunRe.ReplaceAllString(line, " ")
	return strings.ToLower(line)
}

// Cleaner strips page furniture from section text.
type Cleaner struct {
	Boilerplate Boilerplate
}

// Clean removes, line by line and in this order: running headers and
// footers, bare page numbers, continuation headings such as
// "7.3 CSD Register (cont'd)", isolated "7.3.1 CSD_STRUCTURE [127:126]"
// headers, and lines holding only num. Then num is stripped from the start
// of every line and whitespace is normalised.
func (c Cleaner) Clean(text string, num doctree.Number) string {
	var ownLineRe, ownPrefixRe *regexp.Regexp
	if !num.IsZero() {
		q := regexp.QuoteMeta(num.String())
		ownLineRe = regexp.MustCompile(`^` + q + `\.?$`)
		ownPrefixRe = regexp.MustCompile(`^` + q + `\.?[ \t]+`)
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			kept = append(kept, "")
			continue
		}
		if c.Boilerplate[boilerplateKey(s)] {
			continue
		}
		if isPageNumberLine(s) {
			continue
		}
		if contdRe.MatchString(s) && utf8.RuneCountInString(s) < maxContdLineRunes && !strings.HasSuffix(s, ".") {
			continue
		}
		if isolatedHeaderRe.MatchString(s) {
			continue
		}
		if ownLineRe != nil && ownLineRe.MatchString(s) {
			continue
		}
		if ownPrefixRe != nil {
			s = ownPrefixRe.ReplaceAllString(s, "")
		}
		kept = append(kept, s)
	}
	return normalizeWhitespace(kept)
}

func isPageNumberLine(s string) bool {
	for _, re := range pageNumberRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// normalizeWhitespace collapses space runs to one space and blank-line runs
// to a single blank line, and trims the result.
func normalizeWhitespace(lines []string) string {
	var b strings.Builder
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(spaceRunRe.ReplaceAllString(l, " "))
		if l == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		blank = false
		b.WriteString(l)
	}
	return b.String()
}
