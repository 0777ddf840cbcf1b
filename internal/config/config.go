package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"quiz-arena/internal/domain"
	"quiz-arena/internal/quiz"
)

// Result sink drivers.
const (
	ResultsCSV      = "csv"
	ResultsSQLite   = "sqlite"
	ResultsPostgres = "postgres"
	ResultsRedis    = "redis"
	ResultsMemory   = "memory"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// TTL bounds how long a loaded bank stays cached.
		TTL        string         `yaml:"ttl"`
		BankDir    string         `yaml:"bankDir"`
		SessionTTL string         `yaml:"sessionTTL"`
		Weights    map[string]int `yaml:"weights"`
	} `yaml:"quiz"`
	Results struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"results"`
	Auth struct {
		JWTSecret    string `yaml:"jwtSecret"`
		TokenTTL     string `yaml:"tokenTTL"`
		RequireToken bool   `yaml:"requireToken"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Weights overlays the configured experience table on the defaults.
// Difficulty names are matched case-insensitively.
func (c Config) Weights() quiz.Weights {
	weights := quiz.DefaultWeights()
	for name, xp := range c.Quiz.Weights {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		weights[domain.Difficulty(name)] = xp
	}
	return weights
}

// ResultsDriver picks the configured sink, defaulting to the CSV file.
func (c Config) ResultsDriver() string {
	if c.Results.Driver == "" {
		return ResultsCSV
	}
	return c.Results.Driver
}
