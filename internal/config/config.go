package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sidecar configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
}

// ServerConfig holds HTTP transport settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Token           string        `yaml:"token"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	TrainPerMinute  float64       `yaml:"train_per_minute"` // 0 disables the /train limiter
	TrainBurst      int           `yaml:"train_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// EngineConfig holds training and request defaults.
type EngineConfig struct {
	Seed              int64   `yaml:"seed"`
	DefaultThreshold  float64 `yaml:"default_threshold"`
	DefaultGapMinutes float64 `yaml:"default_gap_minutes"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8081,
			AllowedOrigins:  []string{"http://127.0.0.1", "http://localhost"},
			TrainPerMinute:  6,
			TrainBurst:      2,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			Seed:              42,
			DefaultThreshold:  0.6,
			DefaultGapMinutes: 30,
		},
	}
}

// Load starts from the defaults, applies the YAML file named by
// CHRONICLE_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CHRONICLE_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	cfg.Server.Token = os.ExpandEnv(cfg.Server.Token)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getenv("ML_HOST", cfg.Server.Host)
	cfg.Server.Port = getenvInt("ML_PORT", cfg.Server.Port)
	cfg.Server.Token = getenv("CC_ML_TOKEN", cfg.Server.Token)
	if v := os.Getenv("CHRONICLE_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	cfg.Server.TrainPerMinute = getenvFloat("CHRONICLE_TRAIN_PER_MINUTE", cfg.Server.TrainPerMinute)
	cfg.Log.Level = getenv("CHRONICLE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("CHRONICLE_LOG_FORMAT", cfg.Log.Format)
	cfg.Engine.Seed = int64(getenvInt("CHRONICLE_SEED", int(cfg.Engine.Seed)))
	cfg.Engine.DefaultThreshold = getenvFloat("CHRONICLE_DEFAULT_THRESHOLD", cfg.Engine.DefaultThreshold)
	cfg.Engine.DefaultGapMinutes = getenvFloat("CHRONICLE_DEFAULT_GAP_MINUTES", cfg.Engine.DefaultGapMinutes)
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Server.TrainPerMinute < 0 {
		errs = append(errs, fmt.Errorf("train_per_minute must not be negative"))
	}
	if c.Server.TrainPerMinute > 0 && c.Server.TrainBurst < 1 {
		errs = append(errs, fmt.Errorf("train_burst must be at least 1"))
	}
	if t := c.Engine.DefaultThreshold; !(t >= 0 && t <= 1) {
		errs = append(errs, fmt.Errorf("default threshold %v outside [0, 1]", t))
	}
	if g := c.Engine.DefaultGapMinutes; !(g >= 1 && g <= 480) {
		errs = append(errs, fmt.Errorf("default gap %v minutes outside [1, 480]", g))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
