package monitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func keywordsOf(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Keyword)
	}
	return out
}

func TestMatcher_Find(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		want     []string
	}{
		{
			name:     "case insensitive",
			keywords: []string{"apple"},
			text:     "New Apple pie",
			want:     []string{"apple"},
		},
		{
			name:     "keyword order not text order",
			keywords: []string{"pie", "apple", "pear"},
			text:     "apple then pie",
			want:     []string{"pie", "apple"},
		},
		{
			name:     "one hit per keyword",
			keywords: []string{"apple"},
			text:     "apple apple APPLE",
			want:     []string{"apple"},
		},
		{
			name:     "duplicate keywords collapse to first spelling",
			keywords: []string{"Apple", "apple", " APPLE "},
			text:     "an apple",
			want:     []string{"Apple"},
		},
		{
			name:     "nested keywords both match",
			keywords: []string{"apple", "app"},
			text:     "pineapple",
			want:     []string{"apple", "app"},
		},
		{
			name:     "substring inside word",
			keywords: []string{"app"},
			text:     "mapping",
			want:     []string{"app"},
		},
		{
			name:     "no match",
			keywords: []string{"apple"},
			text:     "banana",
			want:     []string{},
		},
		{
			name:     "blank keywords ignored",
			keywords: []string{"", "  "},
			text:     "anything",
			want:     []string{},
		},
		{
			name:     "empty text",
			keywords: []string{"apple"},
			text:     "",
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keywordsOf(NewMatcher(tt.keywords).Find(tt.text))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_Deterministic(t *testing.T) {
	m := NewMatcher([]string{"c", "a", "b"})
	text := "b a c b a c"
	first := m.Find(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Find(text))
	}
}

func TestMatcher_Context(t *testing.T) {
	text := strings.Repeat("a", 150) + " Apple " + strings.Repeat("b", 150)
	hits := NewMatcher([]string{"apple"}).Find(text)

	if assert.Len(t, hits, 1) {
		want := strings.Repeat("a", 99) + " Apple " + strings.Repeat("b", 99)
		assert.Equal(t, want, hits[0].Context)
	}
}

func TestMatcher_ContextShortText(t *testing.T) {
	hits := NewMatcher([]string{"apple"}).Find("  fresh apple pie  ")
	if assert.Len(t, hits, 1) {
		assert.Equal(t, "fresh apple pie", hits[0].Context)
	}
}

func TestMatcher_ContextMultibyte(t *testing.T) {
	text := strings.Repeat("苹", 120) + "apple" + strings.Repeat("果", 120)
	hits := NewMatcher([]string{"apple"}).Find(text)

	if assert.Len(t, hits, 1) {
		ctx := hits[0].Context
		assert.Equal(t, strings.Repeat("苹", 100)+"apple"+strings.Repeat("果", 100), ctx)
	}
}

func TestMatcher_ContextKeepsCasingWhenLoweringResizes(t *testing.T) {
	// İ lowers to a one-byte i, shifting every later byte offset
	text := "İSTANBUL: Fresh Apple Pie at İZMİR market"
	hits := NewMatcher([]string{"apple", "izmir"}).Find(text)

	if assert.Len(t, hits, 2) {
		assert.Equal(t, "apple", hits[0].Keyword)
		assert.Equal(t, text, hits[0].Context)
		assert.Equal(t, "izmir", hits[1].Keyword)
		assert.Equal(t, text, hits[1].Context)
	}

	long := strings.Repeat("İ", 150) + " Apple " + strings.Repeat("B", 150)
	hits = NewMatcher([]string{"apple"}).Find(long)
	if assert.Len(t, hits, 1) {
		assert.Equal(t, strings.Repeat("İ", 99)+" Apple "+strings.Repeat("B", 99), hits[0].Context)
	}
}

func TestLowerWithOffsets(t *testing.T) {
	lowered, offsets := lowerWithOffsets("plain Text")
	assert.Equal(t, "plain text", lowered)
	assert.Nil(t, offsets)

	lowered, offsets = lowerWithOffsets("İa")
	assert.Equal(t, strings.ToLower("İa"), lowered)
	assert.Equal(t, []int{0, 2, 3}, offsets)
}

func TestMatcher_Keywords(t *testing.T) {
	m := NewMatcher([]string{" apple ", "Pie", "pie", ""})
	assert.Equal(t, []string{"apple", "Pie"}, m.Keywords())
}
