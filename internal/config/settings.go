package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Backend names accepted by the backend setting.
const (
	BackendPostgres    = "postgres"
	BackendGoogleTasks = "googletasks"
)

// EnvPrefix prefixes every environment override, e.g. TASKMIRROR_POSTGRES_URL.
const EnvPrefix = "TASKMIRROR"

// Settings holds the values read from config.yaml and the environment.
type Settings struct {
	Backend        string              `mapstructure:"backend" validate:"required,oneof=postgres googletasks"`
	LogLevel       string              `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat      string              `mapstructure:"log_format" validate:"required,oneof=text json"`
	RequestTimeout time.Duration       `mapstructure:"request_timeout" validate:"gt=0"`
	Postgres       PostgresSettings    `mapstructure:"postgres"`
	GoogleTasks    GoogleTasksSettings `mapstructure:"googletasks"`
}

// PostgresSettings configures the postgres backend.
type PostgresSettings struct {
	URL          string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// GoogleTasksSettings configures the Google Tasks backend.
type GoogleTasksSettings struct {
	// ListID selects the task list that plays the role of the tasks table.
	ListID string `mapstructure:"list_id" validate:"required"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Backend:        BackendPostgres,
		LogLevel:       "warn",
		LogFormat:      "text",
		RequestTimeout: 5 * time.Second,
		Postgres: PostgresSettings{
			MaxOpenConns: 5,
		},
		GoogleTasks: GoogleTasksSettings{
			ListID: "@default",
		},
	}
}

var validate = validator.New()

// Load reads config.yaml from the config directory, applies TASKMIRROR_*
// environment overrides and validates the result. A missing file is not an
// error; defaults apply. On error c.Settings is left unchanged.
func (c *Config) Load() error {
	v := viper.New()
	setDefaults(v, DefaultSettings())

	v.SetConfigFile(c.SettingsPath())
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	s.LogFormat = strings.ToLower(strings.TrimSpace(s.LogFormat))

	if err := s.Validate(); err != nil {
		return err
	}
	c.Settings = s
	return nil
}

// Validate checks field rules.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s: failed %q check", settingKey(fe.Namespace()), fe.Tag())
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// CheckBackend reports settings the selected backend needs but lacks.
// Only commands that open a store call it.
func (s Settings) CheckBackend() error {
	if s.Backend == BackendPostgres && s.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required for the postgres backend (set it in %s or %s_POSTGRES_URL)", SettingsFile, EnvPrefix)
	}
	return nil
}

// setDefaults registers every key with viper so AutomaticEnv can see it
// during Unmarshal even when the file does not mention it.
func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("postgres.url", d.Postgres.URL)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("googletasks.list_id", d.GoogleTasks.ListID)
}

var settingKeys = map[string]string{
	"Settings.Backend":               "backend",
	"Settings.LogLevel":              "log_level",
	"Settings.LogFormat":             "log_format",
	"Settings.RequestTimeout":        "request_timeout",
	"Settings.Postgres.URL":          "postgres.url",
	"Settings.Postgres.MaxOpenConns": "postgres.max_open_conns",
	"Settings.GoogleTasks.ListID":    "googletasks.list_id",
}

// settingKey maps a validator namespace to its config.yaml key.
func settingKey(namespace string) string {
	if k, ok := settingKeys[namespace]; ok {
		return k
	}
	return namespace
}
