package normalizer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style|noscript)\b[^>]*>.*?</(script|style|noscript)\s*>`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// nonContentTags never contribute text to a page
const nonContentTags = "script, style, noscript, template"

// Normalize reduces an HTML document or fragment to plain text: tags are
// removed, text nodes are joined with spaces, whitespace runs collapse to a
// single space and the result is trimmed. Plain text passes through with
// only whitespace changes. The function is pure.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text, err := extractText(raw)
	if err != nil {
		text = StripTags(raw)
	}
	return CollapseWhitespace(text)
}

// CollapseWhitespace replaces every run of whitespace with one space and
// trims the ends. Used as-is for text that is already rendered.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// StripTags is the parser-free fallback: script and style bodies are
// dropped, every remaining tag becomes a space and entities are decoded.
func StripTags(raw string) string {
	withoutScripts := scriptPattern.ReplaceAllString(raw, " ")
	return html.UnescapeString(tagPattern.ReplaceAllString(withoutScripts, " "))
}

func extractText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find(nonContentTags).Remove()

	var sb strings.Builder
	for _, node := range doc.Nodes {
		writeText(&sb, node)
	}
	return sb.String(), nil
}

// writeText walks n depth-first, separating text nodes so adjacent block
// elements do not glue their words together.
func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}
