// Package settings loads process configuration from an optional YAML file,
// built-in defaults and CERTMAKER_* environment variables.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rook-computer/certmaker/internal/storage"
)

const (
	EnvPrefix  = "CERTMAKER"
	ConfigName = "certmaker"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Settings struct {
	App      AppSettings      `mapstructure:"app"`
	Server   ServerSettings   `mapstructure:"server"`
	Storage  StorageSettings  `mapstructure:"storage"`
	Logging  LoggingSettings  `mapstructure:"logging"`
	Preview  PreviewSettings  `mapstructure:"preview"`
	AutoSave AutoSaveSettings `mapstructure:"autosave"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerSettings struct {
	Listen    string `mapstructure:"listen"`
	Dev       bool   `mapstructure:"dev"`
	StaticDir string `mapstructure:"static_dir"`
}

type StorageSettings struct {
	Driver string        `mapstructure:"driver"`
	Dir    string        `mapstructure:"dir"`
	Redis  RedisSettings `mapstructure:"redis"`
}

type RedisSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level"`
	// File, when set, receives a copy of every log line.
	File string `mapstructure:"file"`
	// StdioFile, when set, receives the process stdout and stderr.
	StdioFile string `mapstructure:"stdio_file"`
}

type PreviewSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Device  string `mapstructure:"device"`
	FPS     int    `mapstructure:"fps"`
}

type AutoSaveSettings struct {
	Delay time.Duration `mapstructure:"delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "certmaker")
	v.SetDefault("app.env", EnvProduction)

	v.SetDefault("server.listen", ":80")
	v.SetDefault("server.dev", false)
	v.SetDefault("server.static_dir", "")

	v.SetDefault("storage.driver", storage.DriverFile)
	v.SetDefault("storage.dir", "/var/lib/certmaker")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.stdio_file", "")

	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.device", "/dev/fb0")
	v.SetDefault("preview.fps", 30)

	v.SetDefault("autosave.delay", time.Second)
}

// Option adjusts the viper instance before any source is read.
type Option func(*viper.Viper)

// WithDefaults replaces built-in defaults by key, e.g. "server.listen".
// Files and the environment still take precedence.
func WithDefaults(defaults map[string]any) Option {
	return func(v *viper.Viper) {
		for key, value := range defaults {
			v.SetDefault(key, value)
		}
	}
}

// Load reads settings. An explicit path must exist; without one, certmaker.yaml
// is looked up in the working directory and /etc/certmaker and may be absent.
func Load(path string, opts ...Option) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	for _, opt := range opts {
		opt(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short names kept from the server's own environment handling.
	_ = v.BindEnv("server.listen", "CERTMAKER_LISTEN", "CERTMAKER_SERVER_LISTEN")
	_ = v.BindEnv("server.dev", "CERTMAKER_DEV", "CERTMAKER_SERVER_DEV")
	_ = v.BindEnv("logging.stdio_file", "CERTMAKER_STDIO_LOG", "CERTMAKER_LOGGING_STDIO_FILE")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/certmaker")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	switch s.Storage.Driver {
	case storage.DriverFile, storage.DriverMemory, storage.DriverRedis:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", s.Storage.Driver)
	}
	if s.Storage.Driver == storage.DriverFile && s.Storage.Dir == "" {
		return errors.New("storage.dir is required for the file driver")
	}
	if s.Preview.FPS <= 0 {
		return fmt.Errorf("preview.fps must be positive (got %d)", s.Preview.FPS)
	}
	if s.AutoSave.Delay <= 0 {
		return fmt.Errorf("autosave.delay must be positive (got %s)", s.AutoSave.Delay)
	}
	return nil
}

func (s *Settings) IsDevelopment() bool {
	return s.App.Env == EnvDevelopment
}

// StorageOptions maps the storage section onto storage.Open options.
func (s *Settings) StorageOptions() storage.Options {
	return storage.Options{
		Driver:        s.Storage.Driver,
		Dir:           s.Storage.Dir,
		RedisHost:     s.Storage.Redis.Host,
		RedisPort:     s.Storage.Redis.Port,
		RedisPassword: s.Storage.Redis.Password,
		RedisDB:       s.Storage.Redis.DB,
	}
}
