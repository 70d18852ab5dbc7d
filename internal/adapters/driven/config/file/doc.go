// Package file keeps annotator settings in a TOML file, by default
// ~/.annotator/config.toml. Dotted keys such as "coding.edit_mode" map to
// nested TOML tables.
package file
