package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// span is a half-open byte range [start, end) into a section's text.
// Splitting works on spans rather than copied strings so that every piece
// can be mapped back to the pages it came from.
type span struct {
	start, end int
}

func (s span) empty() bool { return s.end <= s.start }

func (s span) text(full string) string { return full[s.start:s.end] }

func trimSpan(full string, s span) span {
	for s.start < s.end {
		r, size := utf8.DecodeRuneInString(full[s.start:s.end])
		if !unicode.IsSpace(r) {
			break
		}
		s.start += size
	}
	for s.end > s.start {
		r, size := utf8.DecodeLastRuneInString(full[s.start:s.end])
		if !unicode.IsSpace(r) {
			break
		}
		s.end -= size
	}
	return s
}

// splitSpan breaks s into spans of at most TargetTokens, accumulating
// paragraphs greedily. A paragraph over budget is broken into sentences, a
// sentence into words, and a word into fixed rune windows.
func (t *Truncator) splitSpan(full string, s span) []span {
	var units []span
	for _, para := range splitByParagraphs(full, s) {
		units = append(units, t.fit(full, para, splitBySentences, splitByWords, t.splitByRunes)...)
	}
	return t.accumulate(full, units)
}

// fit returns s as a single unit when it is within budget, otherwise the
// result of the first splitter, recursively fitted with the rest.
func (t *Truncator) fit(full string, s span, splitters ...func(string, span) []span) []span {
	if t.cfg.Estimate(s.text(full)) <= t.cfg.TargetTokens || len(splitters) == 0 {
		return []span{s}
	}
	parts := splitters[0](full, s)
	if len(parts) <= 1 && len(splitters) > 1 {
		return t.fit(full, s, splitters[1:]...)
	}
	var out []span
	for _, p := range parts {
		out = append(out, t.fit(full, p, splitters[1:]...)...)
	}
	return out
}

// accumulate merges adjacent units while the merged text stays within
// TargetTokens.
func (t *Truncator) accumulate(full string, units []span) []span {
	var out []span
	var cur span
	open := false
	for _, u := range units {
		if !open {
			cur, open = u, true
			continue
		}
		merged := span{cur.start, u.end}
		if t.cfg.Estimate(merged.text(full)) <= t.cfg.TargetTokens {
			cur = merged
			continue
		}
		out = append(out, cur)
		cur = u
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// splitByParagraphs splits on blank lines.
func splitByParagraphs(full string, s span) []span {
	var out []span
	text := s.text(full)
	pos := 0
	for {
		i := strings.Index(text[pos:], "\n\n")
		if i < 0 {
			break
		}
		if p := trimSpan(full, span{s.start + pos, s.start + pos + i}); !p.empty() {
			out = append(out, p)
		}
		pos += i + 2
	}
	if p := trimSpan(full, span{s.start + pos, s.end}); !p.empty() {
		out = append(out, p)
	}
	return out
}

// splitBySentences ends a sentence after '.', '!' or '?' followed by
// whitespace.
func splitBySentences(full string, s span) []span {
	var out []span
	text := s.text(full)
	begin := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t') {
			if p := trimSpan(full, span{s.start + begin, s.start + i + 1}); !p.empty() {
				out = append(out, p)
			}
			begin = i + 1
		}
	}
	if p := trimSpan(full, span{s.start + begin, s.end}); !p.empty() {
		out = append(out, p)
	}
	return out
}

// splitByWords returns one span per whitespace-separated word.
func splitByWords(full string, s span) []span {
	var out []span
	text := s.text(full)
	inWord := false
	begin := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				out = append(out, span{s.start + begin, s.start + i})
				inWord = false
			}
			continue
		}
		if !inWord {
			begin, inWord = i, true
		}
	}
	if inWord {
		out = append(out, span{s.start + begin, s.end})
	}
	return out
}

// splitByRunes cuts s into windows of TargetTokens*4 runes.
func (t *Truncator) splitByRunes(full string, s span) []span {
	window := max(1, t.cfg.TargetTokens*4)
	var out []span
	start, n := s.start, 0
	for i := range s.text(full) {
		if n == window {
			out = append(out, span{start, s.start + i})
			start, n = s.start+i, 0
		}
		n++
	}
	if start < s.end {
		out = append(out, span{start, s.end})
	}
	return out
}
