package domain

// WireAnnotation is the flat record that is persisted and transmitted.
// Legacy records may omit Type; Classify resolves it.
type WireAnnotation struct {
	ID       string         `json:"id,omitempty"`
	Type     AnnotationType `json:"type,omitempty"`
	Variable string         `json:"variable"`
	Value    string         `json:"value"`
	Color    string         `json:"color,omitempty"`

	Field  string `json:"field,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Length *int   `json:"length,omitempty"`
	Text   string `json:"text,omitempty"`

	From   *WireEndpoint `json:"from,omitempty"`
	To     *WireEndpoint `json:"to,omitempty"`
	FromID string        `json:"fromId,omitempty"`
	ToID   string        `json:"toId,omitempty"`
}

// WireEndpoint locates a relation endpoint by its span annotation's content.
type WireEndpoint struct {
	Field    string `json:"field,omitempty"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

// Classify returns the record's annotation type. Untyped records are
// spans if they carry an offset, relations if they carry an endpoint,
// and field annotations otherwise.
func (w WireAnnotation) Classify() AnnotationType {
	if w.Type.IsValid() {
		return w.Type
	}
	switch {
	case w.Offset != nil:
		return AnnotationSpan
	case w.FromID != "" || w.From != nil:
		return AnnotationRelation
	default:
		return AnnotationField
	}
}

// Tuple is the identity of a record for round-trip comparison.
type Tuple struct {
	Type     AnnotationType
	Variable string
	Value    string
	Field    string
	Offset   int
	Length   int
}

// Tuple returns the comparison tuple of the record.
func (w WireAnnotation) Tuple() Tuple {
	t := Tuple{
		Type:     w.Classify(),
		Variable: w.Variable,
		Value:    w.Value,
		Field:    w.Field,
	}
	if w.Offset != nil {
		t.Offset = *w.Offset
	}
	if w.Length != nil {
		t.Length = *w.Length
	}
	return t
}

// IntPtr returns a pointer to v. Handy for building wire records.
func IntPtr(v int) *int {
	return &v
}
