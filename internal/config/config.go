package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	Registration *RegistrationConfig `mapstructure:"registration"`
	Mail         *MailConfig         `mapstructure:"mail"`

	mu sync.RWMutex
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	AdminEmail         string   `mapstructure:"admin_email"`
	AdminPasswordHash  string   `mapstructure:"admin_password_hash"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RegistrationConfig holds the business policy knobs of the registration
// engine. DropInCutoffDate is the final-week boundary: drop-in bundles may
// not include a class dated on or after it.
type RegistrationConfig struct {
	DropInCutoffDate          string `mapstructure:"drop_in_cutoff_date"`
	MaxBundleCourses          int    `mapstructure:"max_bundle_courses"`
	WaitlistNotifyExpiryHours int    `mapstructure:"waitlist_notify_expiry_hours"`
}

type MailConfig struct {
	SendGridKey         string `mapstructure:"sendgrid_key"`
	FromName            string `mapstructure:"from_name"`
	FromEmail           string `mapstructure:"from_email"`
	RegistrationBaseURL string `mapstructure:"registration_base_url"`
}

// CutoffDate parses DropInCutoffDate as a YYYY-MM-DD day boundary.
func (c RegistrationConfig) CutoffDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.DropInCutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid drop_in_cutoff_date %q -> %w", c.DropInCutoffDate, err)
	}

	return t, nil
}

func Load(configPath string) (*AppConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := AppConfig{}
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	if conf.Registration == nil {
		conf.Registration = &RegistrationConfig{}
	}
	if conf.Registration.MaxBundleCourses == 0 {
		conf.Registration.MaxBundleCourses = 3
	}
	if conf.Registration.WaitlistNotifyExpiryHours == 0 {
		conf.Registration.WaitlistNotifyExpiryHours = 48
	}

	return &conf, nil
}

// WatchRegistration re-reads the registration policy block whenever the
// config file changes on disk, so a new session cutoff does not require a
// restart. Only the registration section is refreshed.
func (c *AppConfig) WatchRegistration(onChange func(RegistrationConfig)) {
	viper.OnConfigChange(func(_ fsnotify.Event) {
		var rc RegistrationConfig
		if err := viper.UnmarshalKey("registration", &rc); err != nil {
			return
		}

		c.mu.Lock()
		*c.Registration = rc
		c.mu.Unlock()

		if onChange != nil {
			onChange(rc)
		}
	})
	viper.WatchConfig()
}

// RegistrationPolicy returns a copy of the current registration policy,
// safe against concurrent config reloads.
func (c *AppConfig) RegistrationPolicy() RegistrationConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return *c.Registration
}
