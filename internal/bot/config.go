package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Words shown per /words page
	WordsPageSize int
	// How long a pending conversation step (import, translation, name) stays valid
	StateTTL time.Duration
	// Days in the /stats series
	StatsDays int
	// Largest spreadsheet accepted by /import
	MaxImportBytes int
	// Default reminder hour for new users
	DefaultNotificationHour int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:           60,
		WordsPageSize:           30,
		StateTTL:                15 * time.Minute,
		StatsDays:               7,
		MaxImportBytes:          5 << 20,
		DefaultNotificationHour: 9,
	}
}
