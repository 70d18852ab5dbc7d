// Package domain defines the core business entities of the annotator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Token, Span: the tokenised text being coded
//   - Annotation: a span, relation or field label (tagged union)
//   - WireAnnotation: the flat persisted/transmitted record
//   - Codebook, Question, Answer: the questionnaire view of a unit
//   - Unit: a tokenised document with its annotations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
