package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// BackendModeLocal runs the customer/address/order boundary in-process.
	BackendModeLocal = "local"
	// BackendModeRemote calls a Supabase-compatible deployment over HTTP.
	BackendModeRemote = "remote"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// AllowOrigins is the CORS allow list of the storefront, comma separated.
	AllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS" default:"*"`

	// Redis holds the connection used for persisted cart/checkout state.
	Redis RedisConfig `mapstructure:",squash"`

	// Database holds the backend store configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Gateway holds the payment gateway credentials.
	Gateway GatewayConfig `mapstructure:",squash"`

	// Backend selects how the customer/address/order boundary is reached.
	Backend BackendConfig `mapstructure:",squash"`

	// Checkout tunes the orchestration engine.
	Checkout CheckoutConfig `mapstructure:",squash"`

	// Catalog tunes the product listing.
	Catalog CatalogConfig `mapstructure:",squash"`

	// Proxy is an optional egress proxy for outbound gateway calls.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// RedisConfig holds the Redis connection string.
type RedisConfig struct {
	// URL has the form redis://[:password@]host[:port][/database].
	URL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `mapstructure:"DB_DRIVER" default:"sqlite"`
	// DSN is the driver specific data source name.
	DSN string `mapstructure:"DB_DSN" default:"file:checkout.db?cache=shared"`
	// AutoMigrate creates/updates tables at startup.
	AutoMigrate bool `mapstructure:"DB_AUTO_MIGRATE" default:"true"`
}

// GatewayConfig holds the credentials for the payment gateway.
type GatewayConfig struct {
	// PublicKey is the publishable key; its prefix selects sandbox or production.
	PublicKey string `mapstructure:"GATEWAY_PUBLIC_KEY" required:"true"`
	// PrivateKey authorizes server-side transaction creation.
	PrivateKey string `mapstructure:"GATEWAY_PRIVATE_KEY"`
	// IntegritySecret signs transaction creation requests.
	IntegritySecret string `mapstructure:"GATEWAY_INTEGRITY_SECRET"`
	// EventsSecret verifies webhook checksums.
	EventsSecret string `mapstructure:"GATEWAY_EVENTS_SECRET"`
	// BaseURL overrides the host derived from the key prefix.
	BaseURL string `mapstructure:"GATEWAY_BASE_URL"`
	// RedirectURL is where the gateway sends the shopper back after async payments.
	RedirectURL string `mapstructure:"GATEWAY_REDIRECT_URL"`
	// Currency is the ISO currency of every charge.
	Currency string `mapstructure:"GATEWAY_CURRENCY" default:"COP"`
	// Timeout bounds every gateway request.
	Timeout time.Duration `mapstructure:"GATEWAY_TIMEOUT" default:"15s"`
}

// BackendConfig holds the trusted backend settings.
type BackendConfig struct {
	// Mode is "local" or "remote".
	Mode string `mapstructure:"BACKEND_MODE" default:"local"`
	// URL is the base URL of the remote deployment.
	URL string `mapstructure:"BACKEND_URL"`
	// APIKey is sent as apikey and bearer token to the remote deployment.
	APIKey string `mapstructure:"BACKEND_API_KEY"`
	// OrderFunction is the name of the atomic order+charge function.
	OrderFunction string `mapstructure:"BACKEND_ORDER_FUNCTION" default:"create-order"`
}

// CheckoutConfig holds timings of the checkout engine.
type CheckoutConfig struct {
	// PollInterval is the delay between transaction status polls.
	PollInterval time.Duration `mapstructure:"CHECKOUT_POLL_INTERVAL" default:"3s"`
	// SubmitLockTTL bounds how long a submission lock can be held.
	SubmitLockTTL time.Duration `mapstructure:"CHECKOUT_SUBMIT_LOCK_TTL" default:"2m"`
	// SessionTTL is how long an idle cart/checkout survives in the store.
	SessionTTL time.Duration `mapstructure:"CHECKOUT_SESSION_TTL" default:"720h"`
}

// CatalogConfig holds the product catalog settings.
type CatalogConfig struct {
	// CacheTTL is how long the public listing is served from Redis.
	CacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL" default:"5m"`
	// SeedFile is an optional JSON array of products upserted at startup.
	SeedFile string `mapstructure:"CATALOG_SEED_FILE"`
}

// ProxyConfig holds the optional egress proxy.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED" default:"false"`
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := config.validateBackend(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateBackend checks the settings that depend on the selected backend mode.
func (c *AppConfig) validateBackend() error {
	c.Backend.Mode = strings.ToLower(strings.TrimSpace(c.Backend.Mode))

	switch c.Backend.Mode {
	case BackendModeLocal:
		if c.Gateway.PrivateKey == "" || c.Gateway.IntegritySecret == "" {
			return fmt.Errorf("missing required configuration: GATEWAY_PRIVATE_KEY and GATEWAY_INTEGRITY_SECRET are needed when BACKEND_MODE=local")
		}
	case BackendModeRemote:
		if c.Backend.URL == "" {
			return fmt.Errorf("missing required configuration: BACKEND_URL")
		}
	default:
		return fmt.Errorf("invalid BACKEND_MODE %q", c.Backend.Mode)
	}
	return nil
}

// processTags iterates over the struct fields, binds their env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("binding %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
