// Package config loads shoplist settings from the environment and an optional .env file.
//
// Every key can be overridden with a SHOPLIST_ prefixed variable, e.g. SHOPLIST_SERVER_PORT
// for server.port.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Invite   InviteConfig   `mapstructure:"invite"`
	Recipe   RecipeConfig   `mapstructure:"recipe"`
	Parser   ParserConfig   `mapstructure:"parser"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" default:"8080"`
	// StreamSecret signs push channel tickets. Clients must hold the same value.
	StreamSecret string `mapstructure:"stream_secret" default:""`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" default:"shoplist.db"`
}

type LogConfig struct {
	Level string `mapstructure:"level" default:"info"`
	File  string `mapstructure:"file" default:""`
}

type InviteConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" default:"10"`
}

// TTL returns the invite code lifetime.
func (c InviteConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

type RecipeConfig struct {
	WebLookup      bool `mapstructure:"web_lookup" default:"true"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds" default:"15"`
}

func (c RecipeConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ParserConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" default:""`
	GeminiModel  string `mapstructure:"gemini_model" default:"gemini-1.5-flash"`
}

type ClientConfig struct {
	Endpoint     string `mapstructure:"endpoint" default:"http://localhost:8080"`
	Token        string `mapstructure:"token" default:""`
	CachePath    string `mapstructure:"cache_path" default:"shoplist-client.db"`
	ListID       int64  `mapstructure:"list_id" default:"0"`
	StreamSecret string `mapstructure:"stream_secret" default:""`
}

// Load reads configuration from SHOPLIST_* environment variables and path/.env.
// A missing .env file is not an error.
func Load(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}
	_ = godotenv.Overload(envPath)

	v := viper.New()
	v.SetEnvPrefix("SHOPLIST")
	bindValues(v, Config{}, "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindValues registers every mapstructure key with its `default` tag so AutomaticEnv can see it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
