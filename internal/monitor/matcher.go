package monitor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// contextRadius is how many characters of surrounding text a match keeps
// on each side of the keyword.
const contextRadius = 100

// Matcher finds which keywords occur in a text. Matching is
// case-insensitive substring presence; keywords that differ only in case
// count once, under their first spelling.
type Matcher struct {
	keywords []string
	lowered  []string
	ac       *ahocorasick.Matcher
}

// NewMatcher compiles keywords. Blank entries are ignored.
func NewMatcher(keywords []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		m.keywords = append(m.keywords, kw)
		m.lowered = append(m.lowered, lower)
	}
	if len(m.lowered) > 0 {
		m.ac = ahocorasick.NewStringMatcher(m.lowered)
	}
	return m
}

// Keywords returns the effective keyword list.
func (m *Matcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Hit is one keyword found in a text.
type Hit struct {
	Keyword string
	Context string
}

// Find returns one Hit per keyword present in text, in keyword order.
func (m *Matcher) Find(text string) []Hit {
	if m.ac == nil || text == "" {
		return nil
	}

	lowerText, offsets := lowerWithOffsets(text)
	indices := m.ac.Match([]byte(lowerText))
	if len(indices) == 0 {
		return nil
	}
	sort.Ints(indices)

	hits := make([]Hit, 0, len(indices))
	last := -1
	for _, i := range indices {
		if i == last {
			continue
		}
		last = i
		hits = append(hits, Hit{
			Keyword: m.keywords[i],
			Context: surroundingText(text, lowerText, offsets, m.lowered[i]),
		})
	}
	return hits
}

// lowerWithOffsets lowercases text the way strings.ToLower does. When that
// changes byte lengths (İ, K and a few other letters) it also returns, for
// every byte of the lowered text plus its end, the offset of the rune it
// came from in text. offsets is nil when the two strings line up byte for
// byte.
func lowerWithOffsets(text string) (string, []int) {
	lowered := strings.ToLower(text)
	if len(lowered) == len(text) {
		return lowered, nil
	}

	var sb strings.Builder
	sb.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		n, _ := sb.WriteRune(unicode.ToLower(r))
		for j := 0; j < n; j++ {
			offsets = append(offsets, i)
		}
		i += size
	}
	offsets = append(offsets, len(text))
	return sb.String(), offsets
}

// surroundingText cuts up to contextRadius characters either side of the
// first occurrence of needle, keeping the casing of text.
func surroundingText(text, lowerText string, offsets []int, needle string) string {
	idx := strings.Index(lowerText, needle)
	if idx < 0 {
		return ""
	}
	start, end := idx, idx+len(needle)
	if offsets != nil {
		start, end = offsets[start], offsets[end]
	}

	for n := 0; n < contextRadius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for n := 0; n < contextRadius && end < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return strings.TrimSpace(text[start:end])
}
