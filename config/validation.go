package config

import (
	"fmt"
	"strings"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Audio.SampleRate < 8000 {
		return fmt.Errorf("audio.sample_rate must be at least 8000")
	}
	if cfg.Audio.Carrier <= 0 || cfg.Audio.Carrier >= float64(cfg.Audio.SampleRate)/2 {
		return fmt.Errorf("audio.carrier must be between 0 and %d", cfg.Audio.SampleRate/2)
	}
	if cfg.Audio.Level <= 0 || cfg.Audio.Level > 1 {
		return fmt.Errorf("audio.level must be in (0, 1]")
	}

	if cfg.Framing.Preamble < 0 {
		return fmt.Errorf("framing.preamble must not be negative")
	}
	if cfg.Framing.Postamble < 0 {
		return fmt.Errorf("framing.postamble must not be negative")
	}

	if cfg.Station.Callsign != "" && len([]rune(cfg.Station.Callsign)) < 4 {
		return fmt.Errorf("station.callsign must have at least 4 characters")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is unknown (debug, info, warn, error)", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is unknown (text, json)", cfg.Logging.Format)
	}

	return nil
}
