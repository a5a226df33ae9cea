// Package config loads the overlay service settings from defaults, an
// optional .env file and JDR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "JDR_"

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `koanf:"server" validate:"required"`
	ESB    ESBConfig    `koanf:"esb"    validate:"required"`
	Status StatusConfig `koanf:"status" validate:"required"`
	Store  StoreConfig  `koanf:"store"  validate:"required"`
	Log    LogConfig    `koanf:"log"    validate:"required"`
}

// ServerConfig holds the listen address and the streamer served.
type ServerConfig struct {
	Addr       string `koanf:"addr"        validate:"required"`
	StreamerID string `koanf:"streamer_id" validate:"required"`
}

// ESBConfig points at the external song-request API.
type ESBConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"  validate:"gt=0"`
}

// StatusConfig sets how long a request status stays visible.
type StatusConfig struct {
	Duration time.Duration `koanf:"duration" validate:"gt=0"`
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LogConfig controls log level, format and the optional log file.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
	File  string `koanf:"file"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":3000", StreamerID: "default"},
		ESB: ESBConfig{
			BaseURL: "https://api.justdancerequests.com",
			Timeout: 10 * time.Second,
		},
		Status: StatusConfig{Duration: 2000 * time.Millisecond},
		Store:  StoreConfig{Path: "data/overlay.sqlite"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load resolves the configuration. envFiles are read with godotenv without
// overriding variables already set; missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// transformEnvKey maps JDR_ESB_BASE_URL to esb.base_url.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return "", nil
	}
	return section + "." + rest, value
}
