package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/tokenizer"
)

func TestRenderTokens_Plain(t *testing.T) {
	tokens := tokenizer.New().Tokenize([]domain.TextField{
		{Name: "title", Value: "Budget news", Context: true},
		{Name: "text", Value: testText},
	})

	out := renderTokens(tokens, nil, false)
	assert.Contains(t, out, "title:")
	assert.Contains(t, out, "Budget news")
	assert.Contains(t, out, "text:\n"+testText)
}

func TestCoveringSpan(t *testing.T) {
	tokens := tokenizer.Tokenize(testText)
	records := []domain.WireAnnotation{
		{Type: domain.AnnotationField, Variable: "tone", Value: "positive"},
		{Type: domain.AnnotationSpan, Variable: "actor", Value: domain.EmptyValue, Field: "text", Offset: domain.IntPtr(0), Length: domain.IntPtr(3)},
		{Type: domain.AnnotationSpan, Variable: "topic", Value: "econ", Field: "text", Offset: domain.IntPtr(22), Length: domain.IntPtr(6), Color: "#ffaa00"},
	}

	_, ok := coveringSpan(tokens[0], records)
	assert.False(t, ok)

	r, ok := coveringSpan(tokens[4], records)
	assert.True(t, ok)
	assert.Equal(t, "econ", r.Value)

	_, ok = coveringSpan(tokens[5], records)
	assert.False(t, ok)

	out := renderTokens(tokens, records, true)
	assert.Contains(t, out, "budget")
}

func TestDescribeRecord(t *testing.T) {
	tests := []struct {
		name   string
		record domain.WireAnnotation
		want   string
	}{
		{
			name:   "span",
			record: domain.WireAnnotation{ID: "a1", Variable: "topic", Value: "econ", Field: "text", Offset: domain.IntPtr(22), Length: domain.IntPtr(6), Text: "budget"},
			want:   `span      a1 topic=econ text[22:28] "budget"`,
		},
		{
			name:   "relation",
			record: domain.WireAnnotation{ID: "r1", Variable: "claim", Value: "about", FromID: "a1", ToID: "a2"},
			want:   "relation  r1 claim=about a1 -> a2",
		},
		{
			name:   "unit field",
			record: domain.WireAnnotation{ID: "f1", Variable: "tone", Value: "positive"},
			want:   "field     f1 tone=positive",
		},
		{
			name:   "named field",
			record: domain.WireAnnotation{ID: "f2", Type: domain.AnnotationField, Variable: "tone", Value: "positive", Field: "title"},
			want:   "field     f2 tone=positive (title)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeRecord(tt.record))
		})
	}
}
