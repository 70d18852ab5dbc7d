package driven

// Normaliser turns a raw document file into plain text a unit can be
// tokenised from. Each normaliser handles a set of file extensions.
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled,
	// including the dot. "" matches files without an extension.
	Extensions() []string

	// Normalise extracts the title and body text of a document.
	Normalise(content []byte) (*NormaliseResult, error)
}

// NormaliseResult is the text extracted from a document.
type NormaliseResult struct {
	// Title is the document title, or empty when it has none.
	Title string

	// Text is the body with markup removed.
	Text string
}
