package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"diet-coach/internal/llm"
	"diet-coach/internal/prompt"
	"diet-coach/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. DIETCOACH_SERVER_PORT.
const EnvPrefix = "DIETCOACH"

type Config struct {
	Server         ServerConfig   `mapstructure:"server" yaml:"server"`
	Database       DatabaseConfig `mapstructure:"database" yaml:"database"`
	LLM            llm.Config     `mapstructure:"llm" yaml:"llm"`
	Log            LogConfig      `mapstructure:"log" yaml:"log"`
	Timezone       string         `mapstructure:"timezone" yaml:"timezone"`
	LexiconFile    string         `mapstructure:"lexicon_file" yaml:"lexicon_file"`
	DefaultPersona string         `mapstructure:"default_persona" yaml:"default_persona"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             8080,
	"server.shutdown_timeout": 10 * time.Second,
	"database.driver":         storage.DriverSQLite,
	"database.dsn":            "diet-coach.db",
	"llm.provider":            llm.ProviderOpenAI,
	"llm.model":               "",
	"llm.api_key":             "",
	"llm.base_url":            "",
	"llm.gateway_url":         llm.DefaultGatewayURL,
	"log.level":               "info",
	"log.format":              "json",
	"timezone":                "Asia/Seoul",
	"lexicon_file":            "",
	"default_persona":         prompt.Bright,
}

// Provider-native variables honored after the prefixed ones.
var aliases = map[string][]string{
	"llm.api_key":     {"OPENAI_API_KEY", "GEMINI_API_KEY", "MCP_PROXY_API_KEY"},
	"llm.base_url":    {"OPENAI_BASE_URL"},
	"llm.gateway_url": {"MCP_PROXY_URL"},
	"llm.model":       {"OPENROUTER_MODEL"},
}

// Load reads .env (if present), then the optional YAML file at path, then
// DIETCOACH_* environment variables, later sources winning.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range aliases {
		envs := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case storage.DriverSQLite, storage.DriverPostgres, storage.DriverMySQL:
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderGateway:
	default:
		return errors.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, ok := prompt.Lookup(c.DefaultPersona); !ok {
		return errors.Errorf("unknown default persona %q", c.DefaultPersona)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", c.Timezone)
	}
	return loc, nil
}

// YAML renders the effective configuration with secrets masked.
func (c *Config) YAML() (string, error) {
	redacted := *c
	if redacted.LLM.APIKey != "" {
		redacted.LLM.APIKey = "********"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode config")
	}
	return string(out), nil
}
