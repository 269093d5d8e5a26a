package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
)

var errSchedulerCron = errors.New("scheduler: cron must be set when the scheduler is enabled")

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Geo       *GeoConfig       `mapstructure:"geo"`
	Cache     *CacheConfig     `mapstructure:"cache"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
	Tours     *ToursConfig     `mapstructure:"tours"`
	Pricing   *PricingConfig   `mapstructure:"pricing"`
	Dataset   *DatasetConfig   `mapstructure:"dataset"`
}

type APIConfig struct {
	Environment              string        `mapstructure:"environment"`
	BaseURL                  string        `mapstructure:"base_url"`
	Port                     string        `mapstructure:"port"`
	AllowedCORSDomains       []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey            string        `mapstructure:"jwt_signing_key"`
	JWTExpiration            time.Duration `mapstructure:"jwt_expiration"`
	RequireEmailConfirmation bool          `mapstructure:"require_email_confirmation"`
	AdminEmails              []string      `mapstructure:"admin_emails"`
	Timezone                 string        `mapstructure:"timezone"`
}

func (c *APIConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Location is the time zone used to decide which calendar day "today" is.
func (c *APIConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(c.Timezone)
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c *PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DB, c.Port, sslMode)
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

type GeoConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Dataset       string        `mapstructure:"dataset"`
	CommuneField  string        `mapstructure:"commune_field"`
	CodeField     string        `mapstructure:"code_field"`
	NameField     string        `mapstructure:"name_field"`
	GeometryField string        `mapstructure:"geometry_field"`
	HousingField  string        `mapstructure:"housing_field"`
	PageSize      int           `mapstructure:"page_size"`
	MaxPages      int           `mapstructure:"max_pages"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryCount    int           `mapstructure:"retry_count"`
}

type CacheConfig struct {
	BoltPath string        `mapstructure:"bolt_path"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

type ToursConfig struct {
	Anchor       string `mapstructure:"anchor"`
	IntervalDays int    `mapstructure:"interval_days"`
	DurationDays int    `mapstructure:"duration_days"`
	WindowMonths int    `mapstructure:"window_months"`
}

func (c *ToursConfig) AnchorDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.Anchor)
}

type PricingConfig struct {
	CostPerThousandCents int64 `mapstructure:"cost_per_thousand_cents"`
}

type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the YAML file at path. Every key can be overridden by an
// environment variable, e.g. API_PORT for api.port.
func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch calls onChange with the reloaded configuration every time the file at
// path is written. Invalid reloads are reported to onError and dropped.
func Watch(path string, onChange func(*AppConfig), onError func(error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		conf, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(conf)
	})
	v.WatchConfig()

	return nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	conf.setDefaults()

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config -> %w", err)
	}

	return conf, nil
}

func (c *AppConfig) setDefaults() {
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.API.JWTExpiration == 0 {
		c.API.JWTExpiration = 24 * time.Hour
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{Mode: "release"}
	}
	if c.Postgres == nil {
		c.Postgres = &PostgresConfig{}
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.DraftTTL == 0 {
		c.Redis.DraftTTL = 24 * time.Hour
	}
	if c.Geo == nil {
		c.Geo = &GeoConfig{}
	}
	if c.Geo.PageSize <= 0 {
		c.Geo.PageSize = 100
	}
	if c.Geo.MaxPages <= 0 {
		c.Geo.MaxPages = 50
	}
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	if c.Scheduler == nil {
		c.Scheduler = &SchedulerConfig{}
	}
	if c.Tours == nil {
		c.Tours = &ToursConfig{}
	}
	if c.Pricing == nil {
		c.Pricing = &PricingConfig{}
	}
	if c.Dataset == nil {
		c.Dataset = &DatasetConfig{}
	}
}

func (c *AppConfig) Validate() error {
	err := validation.ValidateStruct(
		c.API,
		validation.Field(&c.API.Port, validation.Required),
		validation.Field(&c.API.JWTSigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.API.Environment, validation.In("development", "test", "staging", "production")),
	)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if _, err = c.API.Location(); err != nil {
		return fmt.Errorf("api.timezone: %w", err)
	}

	err = validation.ValidateStruct(
		c.Tours,
		validation.Field(&c.Tours.Anchor, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&c.Tours.IntervalDays, validation.Min(0)),
		validation.Field(&c.Tours.DurationDays, validation.Min(0)),
		validation.Field(&c.Tours.WindowMonths, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("tours: %w", err)
	}

	err = validation.ValidateStruct(
		c.Pricing,
		validation.Field(&c.Pricing.CostPerThousandCents, validation.Min(int64(0))),
	)
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	if c.Scheduler.Enabled && c.Scheduler.Cron == "" {
		return errSchedulerCron
	}

	return nil
}
