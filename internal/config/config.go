package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Inbound webhook settings
	Endpoint string
	Token    string
	Port     string

	// Forgejo API settings (optional, used for the startup check)
	ForgejoBaseURL string
	ForgejoToken   string

	// Mute behaviour
	MuteInterval time.Duration

	// Routing rules and delivery platforms, loaded from the rules file
	Rules     []PushRule
	Platforms []Platform
}

// Platform describes one chat platform's delivery endpoint
type Platform struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Target is a single delivery destination within a rule
type Target struct {
	Platform string `yaml:"platform"`
	Channel  string `yaml:"channel"`
	Muted    bool   `yaml:"muted"`
}

// PushRule maps a repository scope prefix to a set of targets
type PushRule struct {
	Scope   string   `yaml:"scope"`
	Targets []Target `yaml:"targets"`
	Enabled bool     `yaml:"enabled"`
	Events  []string `yaml:"events"`
}

// UnmarshalYAML decodes a rule with `enabled` defaulting to true when omitted
func (r *PushRule) UnmarshalYAML(value *yaml.Node) error {
	type rawRule PushRule
	raw := rawRule{Enabled: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*r = PushRule(raw)
	return nil
}

// RulesFile is the on-disk shape of the rules configuration
type RulesFile struct {
	Platforms []Platform `yaml:"platforms"`
	Rules     []PushRule `yaml:"rules"`
}

// LoadConfig loads configuration from environment variables and the rules file
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Endpoint:       getEnvWithDefault("WEBHOOK_ENDPOINT", "/forgejo/webhook"),
		Token:          os.Getenv("WEBHOOK_TOKEN"),
		Port:           getEnvWithDefault("PORT", "3000"),
		ForgejoBaseURL: os.Getenv("FORGEJO_BASE_URL"),
		ForgejoToken:   os.Getenv("FORGEJO_TOKEN"),
	}

	// Mute interval in seconds, default 10 minutes
	muteSeconds := parseInt(os.Getenv("MUTE_INTERVAL"), 600)
	config.MuteInterval = time.Duration(muteSeconds) * time.Second

	if config.Token == "" {
		logrus.Warn("WEBHOOK_TOKEN is empty, webhook authentication is effectively disabled")
	}

	rulesFile := getEnvWithDefault("RULES_FILE", "rules.yaml")
	rules, err := LoadRules(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", rulesFile, err)
	}
	config.Rules = rules.Rules
	config.Platforms = rules.Platforms

	return config, nil
}

// LoadRules reads and validates the rules file at the given path
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if err := rf.Validate(); err != nil {
		return nil, err
	}

	return &rf, nil
}

// Validate checks platform and rule consistency
func (rf *RulesFile) Validate() error {
	names := make(map[string]bool)
	for _, p := range rf.Platforms {
		if p.Name == "" {
			return fmt.Errorf("platform name must not be empty")
		}
		if p.URL == "" {
			return fmt.Errorf("platform %s: url must not be empty", p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate platform name: %s", p.Name)
		}
		names[p.Name] = true
	}

	for i, rule := range rf.Rules {
		for _, target := range rule.Targets {
			if target.Platform == "" {
				return fmt.Errorf("rule %d (scope %q): target platform must not be empty", i, rule.Scope)
			}
			if target.Channel == "" {
				return fmt.Errorf("rule %d (scope %q): target channel must not be empty", i, rule.Scope)
			}
			if !names[target.Platform] {
				return fmt.Errorf("rule %d (scope %q): unknown platform %q", i, rule.Scope, target.Platform)
			}
		}
	}

	return nil
}

// Helper functions
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		logrus.Warnf("Failed to parse int value: %s, using default %d", value, defaultValue)
		return defaultValue
	}
	return i
}
