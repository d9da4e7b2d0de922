package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrInvalidRateBasis is returned when extraction.keystroke_rate_basis is unknown.
var ErrInvalidRateBasis = errors.New("keystroke_rate_basis must be last_event or wall_clock")

var (
	mu      sync.RWMutex
	current *viper.Viper
)

// Config struct is the top-level configuration structure.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ExtractionConfig holds feature extraction settings.
type ExtractionConfig struct {
	Extended           bool   `mapstructure:"extended"`
	KeystrokeRateBasis string `mapstructure:"keystroke_rate_basis"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-dir":    "logging.directory",
	"log-level":  "logging.level",
	"extended":   "extraction.extended",
	"rate-basis": "extraction.keystroke_rate_basis",
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true)

	// Extraction defaults
	v.SetDefault("extraction.extended", false)
	v.SetDefault("extraction.keystroke_rate_basis", "last_event")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Extraction.KeystrokeRateBasis)) {
	case "", "last_event", "wall_clock":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidRateBasis, c.Extraction.KeystrokeRateBasis)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAge < 0 {
		return errors.New("logging rotation settings must not be negative")
	}
	return nil
}

// Init loads the configuration. configFile selects an explicit file; when
// empty, config/biofeat.yaml and ./biofeat.yaml are searched and a missing
// file is not an error. Flags present in flags override file and env values.
func Init(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("config")
		v.AddConfigPath(".")
		v.SetConfigName("biofeat")
		v.SetConfigType("yaml")
	}

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("BIOFEAT") // e.g., BIOFEAT_LOGGING_LEVEL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	current = v
	mu.Unlock()
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the configuration file on change and passes each valid
// reload to onChange. It is a no-op when no file was read.
func Watch(log *zap.Logger, onChange func(*Config)) {
	mu.RLock()
	v := current
	mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		cfg, err := decode(v)
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
}
