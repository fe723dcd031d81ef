package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all server and game tuning, loaded from an optional YAML
// file with environment variable overrides on top.
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		PublicURL      string   `yaml:"public_url"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Game struct {
		TotalRounds      int    `yaml:"total_rounds"`
		GameTimerSec     int    `yaml:"game_timer_sec"`
		PersonalTimerSec int    `yaml:"personal_timer_sec"`
		ResultsDelaySec  int    `yaml:"results_delay_sec"`
		QuestionsFile    string `yaml:"questions_file"`
	} `yaml:"game"`
}

// Default returns the standard configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.PublicURL = "http://localhost:8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Game.TotalRounds = 6
	cfg.Game.GameTimerSec = 4 * 60
	cfg.Game.PersonalTimerSec = 30
	cfg.Game.ResultsDelaySec = 5
	return cfg
}

// Load reads the YAML config at path (skipped when path is empty), then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("WORDQUEST_PORT", c.Server.Port)
	c.Server.PublicURL = getEnv("WORDQUEST_PUBLIC_URL", c.Server.PublicURL)
	c.Game.TotalRounds = getEnvAsInt("WORDQUEST_TOTAL_ROUNDS", c.Game.TotalRounds)
	c.Game.GameTimerSec = getEnvAsInt("WORDQUEST_GAME_TIMER_SEC", c.Game.GameTimerSec)
	c.Game.PersonalTimerSec = getEnvAsInt("WORDQUEST_PERSONAL_TIMER_SEC", c.Game.PersonalTimerSec)
	c.Game.ResultsDelaySec = getEnvAsInt("WORDQUEST_RESULTS_DELAY_SEC", c.Game.ResultsDelaySec)
	c.Game.QuestionsFile = getEnv("WORDQUEST_QUESTIONS_FILE", c.Game.QuestionsFile)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Game.TotalRounds < 1 {
		return fmt.Errorf("total_rounds must be at least 1, got %d", c.Game.TotalRounds)
	}
	if c.Game.GameTimerSec < 1 {
		return fmt.Errorf("game_timer_sec must be at least 1, got %d", c.Game.GameTimerSec)
	}
	if c.Game.PersonalTimerSec < 1 {
		return fmt.Errorf("personal_timer_sec must be at least 1, got %d", c.Game.PersonalTimerSec)
	}
	if c.Game.ResultsDelaySec < 1 {
		return fmt.Errorf("results_delay_sec must be at least 1, got %d", c.Game.ResultsDelaySec)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
