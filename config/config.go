// Package config loads settings for the worker and starter binaries.
//
// Settings are resolved in order: built-in defaults, the YAML file named by
// --config or WARRANTY_CONFIG, environment variables, then command line flags.
package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"warranty-registration/models"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when --config is not given
const EnvConfigPath = "WARRANTY_CONFIG"

const (
	DefaultTemporalAddress = "localhost:7233"
	DefaultNamespace       = "default"
	DefaultTaskQueue       = "warranty-registration-queue"
	DefaultHTTPAddr        = ":8080"
	DefaultPublicURL       = "http://localhost:8080"
	DefaultBuildID         = "1.0.0"
	DefaultPrimaryColor    = "#10b981"
	DefaultSessionCache    = 256
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration of the service
type Config struct {
	Temporal     TemporalConfig     `yaml:"temporal"`
	Services     ServicesConfig     `yaml:"services"`
	HTTP         HTTPConfig         `yaml:"http"`
	Registration RegistrationConfig `yaml:"registration"`
	Log          LogConfig          `yaml:"log"`
	Branding     models.Branding    `yaml:"branding"`

	// Fixtures is a YAML file of warranty requests seeding the review store.
	// Empty uses the embedded demo data.
	Fixtures string `yaml:"fixtures"`
}

// TemporalConfig locates the Temporal cluster
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
	BuildID   string `yaml:"build_id"`
	// EncryptionKey is the hex encoded 32 byte payload master key
	EncryptionKey string `yaml:"encryption_key"`
}

// ServicesConfig points at the merchant's collaborators. Empty URLs switch
// to the built-in demo behaviour.
type ServicesConfig struct {
	OrderServiceURL string `yaml:"order_service_url"`
	MailServiceURL  string `yaml:"mail_service_url"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// PublicURL prefixes the verification links sent to customers
	PublicURL    string `yaml:"public_url"`
	SessionCache int    `yaml:"session_cache"`
}

// RegistrationConfig bounds how long a registration may wait on the customer
type RegistrationConfig struct {
	FormTimeout         time.Duration `yaml:"form_timeout"`
	VerificationTimeout time.Duration `yaml:"verification_timeout"`
}

// LogConfig configures zap
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Temporal: TemporalConfig{
			Address:   DefaultTemporalAddress,
			Namespace: DefaultNamespace,
			TaskQueue: DefaultTaskQueue,
			BuildID:   DefaultBuildID,
		},
		HTTP: HTTPConfig{
			Addr:         DefaultHTTPAddr,
			PublicURL:    DefaultPublicURL,
			SessionCache: DefaultSessionCache,
		},
		Registration: RegistrationConfig{
			FormTimeout:         time.Hour,
			VerificationTimeout: 72 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
		Branding: models.Branding{
			PrimaryColor:    DefaultPrimaryColor,
			DefaultLanguage: models.LanguageEnglish,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("TEMPORAL_ADDRESS", &c.Temporal.Address)
	set("TEMPORAL_NAMESPACE", &c.Temporal.Namespace)
	set("ENCRYPTION_KEY", &c.Temporal.EncryptionKey)
	set("BUILD_ID", &c.Temporal.BuildID)
	set("ORDER_SERVICE_URL", &c.Services.OrderServiceURL)
	set("MAIL_SERVICE_URL", &c.Services.MailServiceURL)
	set("HTTP_ADDR", &c.HTTP.Addr)
	set("PUBLIC_URL", &c.HTTP.PublicURL)
	set("LOG_LEVEL", &c.Log.Level)
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate reports the first unusable setting
func (c *Config) Validate() error {
	switch {
	case c.Temporal.Address == "":
		return fmt.Errorf("%w: temporal address is empty", ErrInvalidConfig)
	case c.Temporal.TaskQueue == "":
		return fmt.Errorf("%w: task queue is empty", ErrInvalidConfig)
	case c.Registration.FormTimeout <= 0:
		return fmt.Errorf("%w: form timeout must be positive", ErrInvalidConfig)
	case c.Registration.VerificationTimeout <= 0:
		return fmt.Errorf("%w: verification timeout must be positive", ErrInvalidConfig)
	case c.HTTP.SessionCache <= 0:
		return fmt.Errorf("%w: session cache must hold at least one dashboard", ErrInvalidConfig)
	case !c.Branding.DefaultLanguage.Valid():
		return fmt.Errorf("%w: unsupported default language %q", ErrInvalidConfig, c.Branding.DefaultLanguage)
	case !hexColor.MatchString(c.Branding.PrimaryColor):
		return fmt.Errorf("%w: primary color %q is not #rrggbb", ErrInvalidConfig, c.Branding.PrimaryColor)
	}
	if _, err := c.MasterKey(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MasterKey decodes the payload encryption key. It returns nil when no key is configured.
func (c *Config) MasterKey() ([]byte, error) {
	if c.Temporal.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Temporal.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key is %d bytes, want 32", len(key))
	}
	return key, nil
}

// Flags holds the command line overrides shared by the binaries
type Flags struct {
	fs *pflag.FlagSet

	configPath      string
	temporalAddress string
	taskQueue       string
	orderServiceURL string
	mailServiceURL  string
	httpAddr        string
	logLevel        string
}

// RegisterFlags adds the shared flags to fs
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.configPath, "config", "", "path to the YAML config file (default $"+EnvConfigPath+")")
	fs.StringVar(&f.temporalAddress, "temporal-address", "", "Temporal frontend host:port")
	fs.StringVar(&f.taskQueue, "task-queue", "", "Temporal task queue")
	fs.StringVar(&f.orderServiceURL, "order-service-url", "", "merchant order service base URL (empty uses the demo lookup)")
	fs.StringVar(&f.mailServiceURL, "mail-service-url", "", "mail service base URL (empty only logs mail)")
	fs.StringVar(&f.httpAddr, "http-addr", "", "API listen address")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return f
}

// Resolve builds the configuration from defaults, file, environment and the
// parsed flags, then validates it
func (f *Flags) Resolve(lookup func(string) (string, bool)) (Config, error) {
	path := f.configPath
	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}

	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(lookup)

	override := func(name string, dst *string, v string) {
		if f.fs.Changed(name) {
			*dst = v
		}
	}
	override("temporal-address", &cfg.Temporal.Address, f.temporalAddress)
	override("task-queue", &cfg.Temporal.TaskQueue, f.taskQueue)
	override("order-service-url", &cfg.Services.OrderServiceURL, f.orderServiceURL)
	override("mail-service-url", &cfg.Services.MailServiceURL, f.mailServiceURL)
	override("http-addr", &cfg.HTTP.Addr, f.httpAddr)
	override("log-level", &cfg.Log.Level, f.logLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
