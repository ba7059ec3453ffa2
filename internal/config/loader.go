package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config captures environment driven configuration values for the slot planner.
type Config struct {
	HTTPPort               int
	Timezone               string
	Location               *time.Location
	DefaultDurationMinutes int
	DefaultBreakMinutes    int
	MaxWindowSlots         int
	VirtualDomains         []string
	AllowedOrigins         []string
	LogLevel               string
	BookingsFile           string
	SessionTTL             time.Duration
	CacheTTL               time.Duration
}

// fileConfig is the optional YAML policy file. Every field is optional.
type fileConfig struct {
	Timezone       string   `yaml:"timezone"`
	Policy         *policy  `yaml:"policy"`
	MaxWindowSlots *int     `yaml:"max_window_slots"`
	VirtualDomains []string `yaml:"virtual_domains"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	BookingsFile   string   `yaml:"bookings_file"`
}

type policy struct {
	DurationMinutes *int `yaml:"duration_minutes"`
	BreakMinutes    *int `yaml:"break_minutes"`
}

// Load parses configuration values from the current process environment.
//
// When SLOTPLANNER_CONFIG_FILE names a YAML file its values replace the defaults
// and environment variables take precedence over both.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:               8080,
		Timezone:               "Europe/Berlin",
		DefaultDurationMinutes: 30,
		DefaultBreakMinutes:    0,
		MaxWindowSlots:         70,
		AllowedOrigins:         []string{"*"},
		LogLevel:               "info",
		SessionTTL:             2 * time.Hour,
		CacheTTL:               time.Minute,
	}

	invalid := make([]string, 0, 4)

	if path := strings.TrimSpace(os.Getenv("SLOTPLANNER_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("SLOTPLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SLOTPLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if tz := strings.TrimSpace(os.Getenv("SLOTPLANNER_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		invalid = append(invalid, "SLOTPLANNER_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if value := strings.TrimSpace(os.Getenv("SLOTPLANNER_DEFAULT_DURATION_MINUTES")); value != "" {
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "SLOTPLANNER_DEFAULT_DURATION_MINUTES")
		} else {
			cfg.DefaultDurationMinutes = minutes
		}
	}

	if value := strings.TrimSpace(os.Getenv("SLOTPLANNER_DEFAULT_BREAK_MINUTES")); value != "" {
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes < 0 {
			invalid = append(invalid, "SLOTPLANNER_DEFAULT_BREAK_MINUTES")
		} else {
			cfg.DefaultBreakMinutes = minutes
		}
	}

	if value := strings.TrimSpace(os.Getenv("SLOTPLANNER_MAX_WINDOW_SLOTS")); value != "" {
		ceiling, err := strconv.Atoi(value)
		if err != nil || ceiling <= 0 {
			invalid = append(invalid, "SLOTPLANNER_MAX_WINDOW_SLOTS")
		} else {
			cfg.MaxWindowSlots = ceiling
		}
	}

	if value := strings.TrimSpace(os.Getenv("SLOTPLANNER_VIRTUAL_DOMAINS")); value != "" {
		cfg.VirtualDomains = splitList(value)
	}

	if value := strings.TrimSpace(os.Getenv("SLOTPLANNER_ALLOWED_ORIGINS")); value != "" {
		cfg.AllowedOrigins = splitList(value)
	}

	if level := strings.ToLower(strings.TrimSpace(os.Getenv("SLOTPLANNER_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "SLOTPLANNER_LOG_LEVEL")
		}
	}

	if path := strings.TrimSpace(os.Getenv("SLOTPLANNER_BOOKINGS_FILE")); path != "" {
		cfg.BookingsFile = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SLOTPLANNER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SLOTPLANNER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SLOTPLANNER_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SLOTPLANNER_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	invalid := make([]string, 0, 3)
	if tz := strings.TrimSpace(file.Timezone); tz != "" {
		cfg.Timezone = tz
	}
	if file.Policy != nil {
		if file.Policy.DurationMinutes != nil {
			if *file.Policy.DurationMinutes <= 0 {
				invalid = append(invalid, "policy.duration_minutes")
			} else {
				cfg.DefaultDurationMinutes = *file.Policy.DurationMinutes
			}
		}
		if file.Policy.BreakMinutes != nil {
			if *file.Policy.BreakMinutes < 0 {
				invalid = append(invalid, "policy.break_minutes")
			} else {
				cfg.DefaultBreakMinutes = *file.Policy.BreakMinutes
			}
		}
	}
	if file.MaxWindowSlots != nil {
		if *file.MaxWindowSlots <= 0 {
			invalid = append(invalid, "max_window_slots")
		} else {
			cfg.MaxWindowSlots = *file.MaxWindowSlots
		}
	}
	if len(file.VirtualDomains) > 0 {
		cfg.VirtualDomains = cleanList(file.VirtualDomains)
	}
	if len(file.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = cleanList(file.AllowedOrigins)
	}
	if path := strings.TrimSpace(file.BookingsFile); path != "" {
		cfg.BookingsFile = path
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid values in config file %s: %s", path, strings.Join(invalid, ", "))
	}
	return nil
}

func splitList(value string) []string {
	return cleanList(strings.Split(value, ","))
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
