package services

import (
	"fmt"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEditMode     = "coding.edit_mode"
	keyHistorySize  = "coding.history_size"
	keyStrict       = "coding.strict"
	keyDataDir      = "storage.data_dir"
	keyCodebookPath = "codebook.path"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Coding: domain.CodingSettings{
			EditMode:    s.getBool(keyEditMode, defaults.Coding.EditMode),
			HistorySize: s.getInt(keyHistorySize, defaults.Coding.HistorySize),
			Strict:      s.getBool(keyStrict, defaults.Coding.Strict),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyDataDir),
		},
		Codebook: domain.CodebookSettings{
			Path: s.configStore.GetString(keyCodebookPath),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(keyEditMode, settings.Coding.EditMode); err != nil {
		return fmt.Errorf("save edit mode: %w", err)
	}
	if err := s.configStore.Set(keyHistorySize, settings.Coding.HistorySize); err != nil {
		return fmt.Errorf("save history size: %w", err)
	}
	if err := s.configStore.Set(keyStrict, settings.Coding.Strict); err != nil {
		return fmt.Errorf("save strict: %w", err)
	}
	if settings.Storage.DataDir != "" {
		if err := s.configStore.Set(keyDataDir, settings.Storage.DataDir); err != nil {
			return fmt.Errorf("save data dir: %w", err)
		}
	}
	if settings.Codebook.Path != "" {
		if err := s.configStore.Set(keyCodebookPath, settings.Codebook.Path); err != nil {
			return fmt.Errorf("save codebook path: %w", err)
		}
	}

	return nil
}

// SetEditMode turns edit mode on or off.
func (s *SettingsService) SetEditMode(enabled bool) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Coding.EditMode = enabled
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
