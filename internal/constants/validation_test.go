package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLanguage(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		expected bool
	}{
		{"Valid two letters", "en", true},
		{"Valid three letters", "fil", true},
		{"Valid with underscore region", "pt_br", true},
		{"Valid with dash region", "zh-TW", true},
		{"Valid uppercase", "JA", true},
		{"Invalid empty", "", false},
		{"Invalid single letter", "e", false},
		{"Invalid digits", "e1", false},
		{"Invalid trailing separator", "en_", false},
		{"Invalid dot", "en.usa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidLanguage(tt.lang))
		})
	}
}

func TestDefaultLanguageIsValid(t *testing.T) {
	assert.True(t, IsValidLanguage(DefaultLanguage))
}
