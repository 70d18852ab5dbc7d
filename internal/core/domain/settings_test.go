package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.False(t, settings.Coding.EditMode)
	assert.Equal(t, DefaultHistorySize, settings.Coding.HistorySize)
	assert.True(t, settings.Coding.Strict)
	assert.Empty(t, settings.Storage.DataDir)
	assert.Empty(t, settings.Codebook.Path)
	assert.NoError(t, settings.Validate())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		history int
		wantErr bool
	}{
		{"default", DefaultHistorySize, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultAppSettings()
			settings.Coding.HistorySize = tt.history
			err := settings.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
