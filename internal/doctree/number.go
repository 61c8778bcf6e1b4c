package doctree

import (
	"strconv"
	"strings"
)

// Number identifies a section: "6.6.2.3", or an appendix such as "A" or "A.2".
type Number struct {
	Letter string // Appendix letter, empty for numbered sections.
	Parts  []int
}

// ParseNumber parses a dotted section number. A trailing dot is tolerated.
func ParseNumber(s string) (Number, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return Number{}, false
	}
	fields := strings.Split(s, ".")

	var n Number
	first := fields[0]
	if len(first) == 1 && first[0] >= 'A' && first[0] <= 'Z' {
		n.Letter = first
		fields = fields[1:]
	}
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || f == "" || f[0] == '+' || f[0] == '-' {
			return Number{}, false
		}
		n.Parts = append(n.Parts, v)
	}
	if n.Letter == "" && len(n.Parts) == 0 {
		return Number{}, false
	}
	return n, true
}

// MustParseNumber is ParseNumber for literals; it panics on malformed input.
func MustParseNumber(s string) Number {
	n, ok := ParseNumber(s)
	if !ok {
		panic("doctree: malformed section number " + strconv.Quote(s))
	}
	return n
}

func (n Number) String() string {
	var b strings.Builder
	b.WriteString(n.Letter)
	for i, p := range n.Parts {
		if i > 0 || n.Letter != "" {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}

// IsZero reports whether n is the zero Number.
func (n Number) IsZero() bool {
	return n.Letter == "" && len(n.Parts) == 0
}

// Depth is the nesting level: "6" is 1, "6.6.2" is 3, "A" is 1, "A.2" is 2.
func (n Number) Depth() int {
	if n.Letter != "" {
		return 1 + len(n.Parts)
	}
	return len(n.Parts)
}

// Last returns the trailing integer component, or 0 for a bare appendix letter.
func (n Number) Last() int {
	if len(n.Parts) == 0 {
		return 0
	}
	return n.Parts[len(n.Parts)-1]
}

// Parent returns the enclosing section, if any.
func (n Number) Parent() (Number, bool) {
	if n.Depth() <= 1 {
		return Number{}, false
	}
	parts := make([]int, len(n.Parts)-1)
	copy(parts, n.Parts)
	return Number{Letter: n.Letter, Parts: parts}, true
}

// Ancestors lists every enclosing section, outermost first.
func (n Number) Ancestors() []Number {
	var out []Number
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Child returns the k-th direct child of n.
func (n Number) Child(k int) Number {
	parts := make([]int, len(n.Parts), len(n.Parts)+1)
	copy(parts, n.Parts)
	return Number{Letter: n.Letter, Parts: append(parts, k)}
}

// IsChildOf reports whether n is a direct child of p.
func (n Number) IsChildOf(p Number) bool {
	parent, ok := n.Parent()
	return ok && parent.Equal(p)
}

// IsDescendantOf reports whether p is a strict prefix of n.
func (n Number) IsDescendantOf(p Number) bool {
	if n.Letter != p.Letter || n.Depth() <= p.Depth() {
		return false
	}
	for i, v := range p.Parts {
		if n.Parts[i] != v {
			return false
		}
	}
	return true
}

func (n Number) Equal(o Number) bool {
	return n.Compare(o) == 0
}

// Compare orders numbers as integer tuples. Numbered sections sort before
// appendices; appendices sort by letter, then by their integer parts.
func (n Number) Compare(o Number) int {
	switch {
	case n.Letter == "" && o.Letter != "":
		return -1
	case n.Letter != "" && o.Letter == "":
		return 1
	case n.Letter != o.Letter:
		return strings.Compare(n.Letter, o.Letter)
	}
	for i := 0; i < len(n.Parts) && i < len(o.Parts); i++ {
		if n.Parts[i] != o.Parts[i] {
			if n.Parts[i] < o.Parts[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(n.Parts) < len(o.Parts):
		return -1
	case len(n.Parts) > len(o.Parts):
		return 1
	}
	return 0
}
