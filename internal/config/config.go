package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/example/wortbot/internal/game"
	"github.com/example/wortbot/internal/mastery"
)

// Config is the runtime configuration of the service
type Config struct {
	LogMode string

	TelegramToken string
	AdminUserIDs  []int64

	DBType      string // sqlite or postgres
	DBPath      string // sqlite file
	DatabaseURL string // postgres DSN

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	AIRequestsPerMinute int

	Mastery mastery.Criteria
	Smart   game.SmartWeights

	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	SnapshotTime          string // HH:MM
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "data/wortbot.db")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_REQUESTS_PER_MINUTE", 6)

	def := mastery.DefaultCriteria()
	v.SetDefault("MASTERY_MIN_PLAYS", def.MinPlays)
	v.SetDefault("MASTERY_MAX_ERROR_RATE", def.MaxErrorRate)
	v.SetDefault("MASTERY_STREAK_NEEDED", def.StreakNeeded)

	smart := game.DefaultSmartWeights()
	v.SetDefault("SMART_NEWNESS", smart.Newness)
	v.SetDefault("SMART_ERROR_FACTOR", smart.ErrorFactor)
	v.SetDefault("SMART_EXPONENT", smart.Exponent)
	v.SetDefault("SMART_FLOOR", smart.Floor)

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("NOTIFICATION_START_HOUR", 4)
	v.SetDefault("NOTIFICATION_END_HOUR", 18)
	v.SetDefault("SNAPSHOT_TIME", "23:55")
}

// Load reads an optional .env file and the environment
func Load(envFiles ...string) (*Config, error) {
	// .env is optional, environment variables win
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds and validates a Config from an initialized viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		LogMode:             v.GetString("LOG_MODE"),
		TelegramToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
		DBType:              strings.ToLower(v.GetString("DB_TYPE")),
		DBPath:              v.GetString("DB_PATH"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		AIRequestsPerMinute: v.GetInt("AI_REQUESTS_PER_MINUTE"),
		Mastery: mastery.Criteria{
			MinPlays:     v.GetInt("MASTERY_MIN_PLAYS"),
			MaxErrorRate: v.GetFloat64("MASTERY_MAX_ERROR_RATE"),
			StreakNeeded: v.GetInt("MASTERY_STREAK_NEEDED"),
		},
		Smart: game.SmartWeights{
			Newness:     v.GetFloat64("SMART_NEWNESS"),
			ErrorFactor: v.GetFloat64("SMART_ERROR_FACTOR"),
			Exponent:    v.GetFloat64("SMART_EXPONENT"),
			Floor:       v.GetFloat64("SMART_FLOOR"),
		},
		SchedulerEnabled:      v.GetBool("ENABLE_SCHEDULER"),
		NotificationStartHour: v.GetInt("NOTIFICATION_START_HOUR"),
		NotificationEndHour:   v.GetInt("NOTIFICATION_END_HOUR"),
		SnapshotTime:          v.GetString("SNAPSHOT_TIME"),
	}

	ids, err := parseIDs(v.GetString("ADMIN_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminUserIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values outside their recognized ranges
func (c *Config) Validate() error {
	if c.DBType != "sqlite" && c.DBType != "postgres" {
		return errors.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.DBType == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for postgres")
	}
	if err := c.Mastery.Validate(); err != nil {
		return errors.Wrap(err, "invalid mastery criteria")
	}
	if c.Smart.Newness < 0 || c.Smart.ErrorFactor < 0 || c.Smart.Exponent <= 0 || c.Smart.Floor <= 0 {
		return errors.New("smart weights must be non-negative with a positive exponent and floor")
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return errors.Errorf("notification hours must be in 0..23, got %d-%d", c.NotificationStartHour, c.NotificationEndHour)
	}
	if _, err := time.Parse("15:04", c.SnapshotTime); err != nil {
		return errors.Wrapf(err, "invalid SNAPSHOT_TIME %q", c.SnapshotTime)
	}
	if c.AIRequestsPerMinute <= 0 {
		return errors.New("AI_REQUESTS_PER_MINUTE must be positive")
	}
	return nil
}

// IsAdmin reports whether the Telegram user is listed in ADMIN_USER_IDS
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid admin user ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
