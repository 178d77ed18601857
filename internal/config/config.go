package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-portal/internal/idp"
)

const (
	EnvPrefix = "PORTAL"

	IdentityModeMock   = "mock"
	IdentityModeRemote = "remote"

	ReportSourceRemote = "remote"
	ReportSourceLocal  = "local"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	APIURL       string             `mapstructure:"api_url" envconfig:"API_URL"`
	Identity     IdentityConfig     `mapstructure:"identity"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Session      SessionConfig      `mapstructure:"session"`
	Appointments AppointmentsConfig `mapstructure:"appointments"`
	Reports      ReportsConfig      `mapstructure:"reports"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit" split_words:"true"`
	CORS         CORSConfig         `mapstructure:"cors"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// IdentityConfig selects the identity provider. Seeds populate the mock one.
type IdentityConfig struct {
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
	Seeds   []idp.Seed    `mapstructure:"seeds" ignored:"true"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
	// Verify checks token signatures; it needs the provider's secret.
	Verify bool `mapstructure:"verify"`
}

// RedisConfig is optional; without a URL client tokens stay in memory and
// notifications are not relayed.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SessionConfig struct {
	IdleTTL      time.Duration `mapstructure:"idle_ttl" split_words:"true"`
	CookieName   string        `mapstructure:"cookie_name" split_words:"true"`
	CookieSecure bool          `mapstructure:"cookie_secure" split_words:"true"`
}

type AppointmentsConfig struct {
	TransitionPolicy string `mapstructure:"transition_policy" split_words:"true"`
	Timezone         string `mapstructure:"timezone"`
}

type ReportsConfig struct {
	Source   string        `mapstructure:"source"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" split_words:"true"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins" split_words:"true"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

// Location is the zone zone-less appointment times are read in.
func (c AppointmentsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("log.level", "info")
	v.SetDefault("api_url", "http://localhost:5005")
	v.SetDefault("identity.mode", IdentityModeMock)
	v.SetDefault("identity.timeout", "10s")
	v.SetDefault("jwt.expiry_hours", 8)
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.cookie_name", "portal_client")
	v.SetDefault("appointments.transition_policy", "permissive")
	v.SetDefault("reports.source", ReportSourceLocal)
	v.SetDefault("reports.cache_ttl", "1m")
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("smtp.port", 587)
}

// LoadConfig reads config.yml from paths (".", "./config" when none are given),
// then applies PORTAL_* environment variables, after loading a .env file if one
// exists. A missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	c.Identity.Mode = strings.ToLower(c.Identity.Mode)
	c.Reports.Source = strings.ToLower(c.Reports.Source)

	switch c.Identity.Mode {
	case IdentityModeMock:
		if c.JWT.Secret == "" {
			return errors.New("jwt.secret is required by the mock identity provider")
		}
	case IdentityModeRemote:
		if c.APIURL == "" {
			return errors.New("api_url is required by the remote identity provider")
		}
		if c.JWT.Verify && c.JWT.Secret == "" {
			return errors.New("jwt.verify needs jwt.secret")
		}
	default:
		return fmt.Errorf("unknown identity mode %q", c.Identity.Mode)
	}

	switch c.Reports.Source {
	case ReportSourceLocal, ReportSourceRemote:
	default:
		return fmt.Errorf("unknown reports source %q", c.Reports.Source)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.Appointments.Location(); err != nil {
		return fmt.Errorf("invalid appointments timezone: %w", err)
	}
	return nil
}
