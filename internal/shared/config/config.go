package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

type Config struct {
	TelegramBotToken string  `koanf:"telegram_bot_token"`
	TelegramAPIURL   string  `koanf:"telegram_api_url"`
	BaseDir          string  `koanf:"base_dir"`
	DatabasePath     string  `koanf:"database_path"`
	HTTPPort         string  `koanf:"http_port"`
	PublicURL        string  `koanf:"public_url"`
	AdminUsername    string  `koanf:"admin_username"`
	AdminPassword    string  `koanf:"admin_password"`
	AllowedUsers     []int64 `koanf:"-"`
	ImageSizeLimit   int64   `koanf:"image_size_limit"`
	MaxImages        int     `koanf:"max_images"`
	KeepExcessImages bool    `koanf:"keep_excess_images"`
	GroupsPerCycle   int     `koanf:"groups_per_cycle"`
	DefaultInterval  int     `koanf:"default_interval"`
	LogLevel         string  `koanf:"log_level"`
	LogFile          string  `koanf:"log_file"`
	DebugTeardown    bool    `koanf:"debug_teardown"`
	AppEnv           AppEnv  `koanf:"-"`
}

// DefaultFiles are the config files Load looks for, in order.
var DefaultFiles = []string{
	"config.yaml",
	"config.yml",
	"config.json",
	"config.toml",
}

var defaults = map[string]any{
	"telegram_api_url": "https://api.telegram.org",
	"base_dir":         "./channels",
	"database_path":    "./data/autoposter.db",
	"http_port":        "8080",
	"admin_username":   "admin",
	"admin_password":   "password",
	"image_size_limit": 5 * 1024 * 1024,
	"max_images":       3,
	"default_interval": 240,
	"log_level":        "info",
	"app_env":          "production",
}

// Load reads the first existing config file (DefaultFiles when none are
// given), applies environment overrides and fills defaults.
func Load(candidates ...string) (*Config, error) {
	if len(candidates) == 0 {
		candidates = DefaultFiles
	}

	k := koanf.New(".")
	if err := loadFile(k, candidates); err != nil {
		return nil, err
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if k.Exists(key) {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, oops.With("key", key).Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}
	cfg.AllowedUsers = allowedUsers(k.Get("allowed_users"))
	cfg.AppEnv = AppEnvProduction
	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, candidates []string) error {
	path, found := lo.Find(candidates, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})
	if !found {
		return nil
	}

	var parser koanf.Parser
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return oops.With("config_file", path).Errorf("unsupported config file extension: %s", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return oops.With("config_file", path).Wrap(err)
	}
	return nil
}

// allowedUsers accepts a comma list (environment) or a list (config files).
func allowedUsers(raw any) []int64 {
	switch v := raw.(type) {
	case string:
		return ParseAllowedUsers(v)
	case []any:
		return lo.FilterMap(v, func(item any, _ int) (int64, bool) {
			switch val := item.(type) {
			case int64:
				return val, true
			case int:
				return int64(val), true
			case float64:
				return int64(val), true
			case string:
				ids := ParseAllowedUsers(val)
				return lo.FirstOrEmpty(ids), len(ids) == 1
			}
			return 0, false
		})
	}
	return nil
}

// Validate checks required and bounded fields.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return errors.ErrMissingBotToken
	}
	if c.ImageSizeLimit <= 0 {
		return oops.With("image_size_limit", c.ImageSizeLimit).Errorf("image_size_limit must be positive")
	}
	if c.MaxImages < 1 || c.MaxImages > 10 {
		return oops.With("max_images", c.MaxImages).Errorf("max_images must be between 1 and 10")
	}
	if c.DefaultInterval <= 0 {
		return oops.With("default_interval", c.DefaultInterval).Errorf("default_interval must be positive")
	}
	if c.GroupsPerCycle < 0 {
		return oops.With("groups_per_cycle", c.GroupsPerCycle).Errorf("groups_per_cycle must not be negative")
	}
	return nil
}

// BaseURL is the externally visible address used in feed links.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return "http://localhost:" + c.HTTPPort
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(part, 10, 64)
		return id, err == nil
	})
}
