package html

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Normalise takes the <title> as the title and the visible text of the
// page as the body, one block element per line.
func (n *Normaliser) Normalise(content []byte) (*driven.NormaliseResult, error) {
	raw := string(content)
	return &driven.NormaliseResult{
		Title: extractTitle(raw),
		Text:  stripHTML(raw),
	}, nil
}

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	invisibleTags = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	comments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockTags     = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)(\s[^>]*)?/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	spaces        = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
)

func extractTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(spaces.ReplaceAllString(html.UnescapeString(m[1]), " "))
}

// stripHTML removes tags and returns the readable text, with block
// elements on their own lines and empty lines dropped.
func stripHTML(content string) string {
	content = invisibleTags.ReplaceAllString(content, "")
	content = comments.ReplaceAllString(content, "")
	content = blockTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
