package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the configuration of the generator.
type Config struct {
	Audio   AudioConfig   `mapstructure:"audio"`
	Framing FramingConfig `mapstructure:"framing"`
	Station StationConfig `mapstructure:"station"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AudioConfig holds the parameters of the generated audio.
type AudioConfig struct {
	SampleRate int     `mapstructure:"sample_rate"` // Hz
	Carrier    float64 `mapstructure:"carrier"`     // Hz
	Level      float64 `mapstructure:"level"`       // peak amplitude relative to full scale
}

// FramingConfig holds the length of the zero runs around the message, in bits.
type FramingConfig struct {
	Preamble  int `mapstructure:"preamble"`
	Postamble int `mapstructure:"postamble"`
}

// StationConfig identifies the transmitting station.
type StationConfig struct {
	Callsign string `mapstructure:"callsign"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load loads the configuration from the given file, environment variables (PSKGEN_*) and defaults.
// A missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pskgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "pskgen"))
		}
	}

	v.SetEnvPrefix("PSKGEN")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the default configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// the defaults always unmarshal
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.carrier", 1000.0)
	v.SetDefault("audio.level", 0.8)

	v.SetDefault("framing.preamble", 64)
	v.SetDefault("framing.postamble", 64)

	v.SetDefault("station.callsign", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
