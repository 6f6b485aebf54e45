package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "PORTUNUS"

type Config struct {
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/portunus-gate.db"

	// DevicePath is the serial device of the gesture/actuator controller.
	DevicePath string

	LogLevel  string
	LogFormat string

	// Authentication policy
	MaxRFIDAttempts  int // recorded, not enforced
	MaxPINAttempts   int
	PatternThreshold float64
	ClosingGesture   *int // nil = no closing gesture

	// Retention of access records and audit attempts
	AccessRetentionDays int // 0 = keep forever
	PruneIntervalHours  int // how often the pruner runs (default 6)

	// MetricsTextfile, when set, receives a Prometheus textfile on exit.
	MetricsTextfile string
}

// Load reads PORTUNUS_* environment variables.  Malformed numbers fall back
// to their defaults; a pattern threshold outside (0, 1] is an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "dev")
	v.SetDefault("db_path", "./data/portunus-gate.db")
	v.SetDefault("device_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("max_rfid_attempts", 3)
	v.SetDefault("max_pin_attempts", 3)
	v.SetDefault("pattern_threshold", 0.9)
	v.SetDefault("closing_gesture", "0")
	v.SetDefault("access_retention_days", 0)
	v.SetDefault("prune_interval_hours", 6)
	v.SetDefault("metrics_textfile", "")

	env := strings.ToLower(getString(v, "env"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	threshold, err := getFloat(v, "pattern_threshold", 0.9)
	if err != nil {
		return Config{}, err
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || !(threshold > 0 && threshold <= 1) {
		return Config{}, fmt.Errorf("%s_PATTERN_THRESHOLD must be in (0, 1], got %v", envPrefix, threshold)
	}

	return Config{
		Env:        env,
		DBPath:     getString(v, "db_path"),
		DevicePath: getString(v, "device_path"),

		LogLevel:  strings.ToLower(getString(v, "log_level")),
		LogFormat: strings.ToLower(getString(v, "log_format")),

		MaxRFIDAttempts:  getInt(v, "max_rfid_attempts", 3),
		MaxPINAttempts:   getInt(v, "max_pin_attempts", 3),
		PatternThreshold: threshold,
		ClosingGesture:   getGesture(v, "closing_gesture", 0),

		AccessRetentionDays: getInt(v, "access_retention_days", 0),
		PruneIntervalHours:  getInt(v, "prune_interval_hours", 6),

		MetricsTextfile: getString(v, "metrics_textfile"),
	}, nil
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func getInt(v *viper.Viper, key string, def int) int {
	s := getString(v, key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getFloat(v *viper.Viper, key string, def float64) (float64, error) {
	s := getString(v, key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s_%s: %w", envPrefix, strings.ToUpper(key), err)
	}
	return f, nil
}

// getGesture accepts an integer gesture code, or "none"/"off" to disable the
// closing gesture.  Anything else falls back to def.
func getGesture(v *viper.Viper, key string, def int) *int {
	s := strings.ToLower(getString(v, key))
	switch s {
	case "none", "off":
		return nil
	case "":
		return &def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return &def
	}
	return &n
}
