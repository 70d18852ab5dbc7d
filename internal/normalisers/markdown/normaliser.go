package markdown

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise takes the first H1 heading as the title and strips the
// formatting from the rest of the document.
func (n *Normaliser) Normalise(content []byte) (*driven.NormaliseResult, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	title, body := splitTitle(text)
	return &driven.NormaliseResult{
		Title: title,
		Text:  stripMarkdown(body),
	}, nil
}

// splitTitle removes the first "# " heading line from content.
func splitTitle(content string) (title, body string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			return title, strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
		}
	}
	return "", content
}

var (
	codeBlock    = regexp.MustCompile("(?s)```.*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*|_)(\S[^*_]*?)(\*\*|__|\*|_)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	rules        = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting. Code blocks and
// images are dropped; inline code, links and emphasis keep their text.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = blankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
