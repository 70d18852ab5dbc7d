// Package normalisers holds the Normaliser implementations used to load
// units from document files. Each subpackage handles one format and
// returns a title plus the body text with markup removed.
package normalisers
