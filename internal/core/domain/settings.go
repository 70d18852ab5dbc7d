package domain

import "fmt"

// Default coding settings.
const (
	DefaultHistorySize = 5
)

// CodingSettings controls how the annotation engine behaves.
type CodingSettings struct {
	// EditMode keeps an EMPTY placeholder when the last value of a
	// variable is deleted from a span.
	EditMode bool

	// HistorySize caps the recent-value history per variable.
	HistorySize int

	// Strict validates the library invariants after every mutation.
	Strict bool
}

// DefaultCodingSettings returns the settings used when nothing is configured.
func DefaultCodingSettings() CodingSettings {
	return CodingSettings{
		EditMode:    false,
		HistorySize: DefaultHistorySize,
		Strict:      true,
	}
}

// StorageSettings locates persisted units.
type StorageSettings struct {
	// DataDir holds the unit database. Empty means the default
	// directory under the user's home.
	DataDir string
}

// CodebookSettings locates the codebook file.
type CodebookSettings struct {
	// Path is a TOML or JSON codebook file.
	Path string
}

// AppSettings contains all user-configurable settings.
type AppSettings struct {
	Coding   CodingSettings
	Storage  StorageSettings
	Codebook CodebookSettings
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Coding: DefaultCodingSettings(),
	}
}

// Validate checks that the settings are usable.
func (s *AppSettings) Validate() error {
	if s.Coding.HistorySize < 1 {
		return fmt.Errorf("%w: history size must be at least 1", ErrInvalidInput)
	}
	return nil
}
