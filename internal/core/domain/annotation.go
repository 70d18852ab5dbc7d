package domain

// AnnotationType is the discriminant of the Annotation tagged union.
type AnnotationType string

// Annotation types.
const (
	// AnnotationSpan labels a contiguous run of tokens.
	AnnotationSpan AnnotationType = "span"

	// AnnotationRelation is a directed edge between two annotations.
	AnnotationRelation AnnotationType = "relation"

	// AnnotationField labels a whole unit, or a whole field of it.
	AnnotationField AnnotationType = "field"
)

// IsValid returns true if the annotation type is recognised.
func (t AnnotationType) IsValid() bool {
	switch t {
	case AnnotationSpan, AnnotationRelation, AnnotationField:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t AnnotationType) String() string {
	return string(t)
}

// Sentinel values.
const (
	// EmptyValue marks a position that was explicitly coded as blank.
	EmptyValue = "EMPTY"

	// IrrelevantValue is forced onto answers disqualified by branching.
	IrrelevantValue = "IRRELEVANT"
)

// IsReservedValue reports whether v is one of the sentinel values, which
// only the engine itself may assign.
func IsReservedValue(v string) bool {
	return v == EmptyValue || v == IrrelevantValue
}

// Annotation is a single coded label. Which fields are meaningful
// depends on Type:
//
//   - span: Span, Field, Offset, Length, Text
//   - relation: FromID, ToID
//   - field: Field (optional)
type Annotation struct {
	ID       string
	Type     AnnotationType
	Variable string
	Value    string
	Color    string

	// Span is the token-level representation derived from Offset/Length.
	Span   Span
	Field  string
	Offset int
	Length int
	Text   string

	FromID string
	ToID   string
}

// IsEmpty reports whether the annotation is the EMPTY placeholder.
func (a Annotation) IsEmpty() bool {
	return a.Value == EmptyValue
}

// Key returns "variable|value", the form used by codebook lookups.
func (a Annotation) Key() string {
	return CodeKey(a.Variable, a.Value)
}

// CodeKey joins a variable and value the way codebook indexes key them.
func CodeKey(variable, value string) string {
	return variable + "|" + value
}

// RelationOption is a relation that may be created between two span annotations.
type RelationOption struct {
	From     Annotation
	To       Annotation
	Variable string
	Value    string
	Color    string
}
