package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the network port the HTTP server will bind to.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// BlocklistPath is the location of the JSON blocklist document.
	BlocklistPath string `koanf:"blocklist_path" validate:"required"`

	// SettingsDB is the location of the bbolt settings database.
	SettingsDB string `koanf:"settings_db" validate:"required"`

	// CacheTTL is how long a loaded blocklist snapshot stays valid in the
	// shared cache before the next read goes back to the store.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"required"`

	// AdminToken guards the admin surface (uploads, settings, key rotation).
	// When empty the admin endpoints refuse all requests.
	AdminToken string `koanf:"admin_token" validate:"omitempty,min=20"`

	// AllowedOrigins is the CORS allowlist for the public list endpoint.
	AllowedOrigins []string `koanf:"allowed_origins" validate:"required,min=1"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:            "prod",
	LogLevel:       "info",
	Port:           8080,
	BlocklistPath:  "/var/lib/form-blocker/blocklist.json",
	SettingsDB:     "/var/lib/form-blocker/settings.db",
	CacheTTL:       time.Hour,
	AdminToken:     "",
	AllowedOrigins: []string{"*"},
}

// envLoader loads environment variables with the prefix "AFB_".
// It transforms keys to lowercase, strips the prefix, and splits
// space/comma separated values into slices. Replaceable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "AFB_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "AFB_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
