package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".markdown"}, New().Extensions())
}

func TestNormalise_Title(t *testing.T) {
	result, err := New().Normalise([]byte("# Budget news\n\nThe minister said the budget will grow."))
	require.NoError(t, err)
	assert.Equal(t, "Budget news", result.Title)
	assert.Equal(t, "The minister said the budget will grow.", result.Text)
}

func TestNormalise_NoTitle(t *testing.T) {
	result, err := New().Normalise([]byte("## Section\n\nBody"))
	require.NoError(t, err)
	assert.Empty(t, result.Title)
	assert.Equal(t, "Section\n\nBody", result.Text)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"emphasis", "the **budget** will _grow_", "the budget will grow"},
		{"link", "see [the report](https://example.com)", "see the report"},
		{"image", "chart ![bars](chart.png) here", "chart  here"},
		{"inline code", "run `annotator` now", "run annotator now"},
		{"code block", "before\n```\ncode\n```\nafter", "before\n\nafter"},
		{"list", "- one\n- two\n1. three", "one\ntwo\nthree"},
		{"quote", "> quoted text", "quoted text"},
		{"rule", "above\n---\nbelow", "above\n\nbelow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
