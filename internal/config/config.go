package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ProductName string `yaml:"product_name"`

	LLMModel        string `yaml:"llm_model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMBatchSize    int    `yaml:"llm_batch_size"`
	MaxThemes       int    `yaml:"max_themes"`
	DiscoverySample int    `yaml:"discovery_sample_size"`
	TopThemeCount   int    `yaml:"top_theme_count"`
	ActionCount     int    `yaml:"action_count"`
	WeeksToAnalyze  int    `yaml:"weeks_to_analyze"`

	DBPath         string `yaml:"db_path"`
	PulseOutputDir string `yaml:"pulse_output_dir"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	PulseChannelID string `yaml:"pulse_channel_id"`
	PulseSchedule  string `yaml:"pulse_schedule"`
	Timezone       string `yaml:"timezone"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ProductName, "PRODUCT_NAME")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverrideInt(&cfg.LLMBatchSize, "LLM_BATCH_SIZE")
	envOverrideInt(&cfg.MaxThemes, "MAX_THEMES")
	envOverrideInt(&cfg.DiscoverySample, "DISCOVERY_SAMPLE_SIZE")
	envOverrideInt(&cfg.TopThemeCount, "TOP_THEME_COUNT")
	envOverrideInt(&cfg.ActionCount, "ACTION_COUNT")
	envOverrideInt(&cfg.WeeksToAnalyze, "WEEKS_TO_ANALYZE")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.PulseOutputDir, "PULSE_OUTPUT_DIR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.PulseChannelID, "PULSE_CHANNEL_ID")
	envOverride(&cfg.PulseSchedule, "PULSE_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")

	// Defaults
	if cfg.ProductName == "" {
		cfg.ProductName = "Our App"
	}
	if cfg.LLMBatchSize == 0 {
		cfg.LLMBatchSize = 20
	}
	if cfg.MaxThemes == 0 {
		cfg.MaxThemes = 5
	}
	if cfg.DiscoverySample == 0 {
		cfg.DiscoverySample = 100
	}
	if cfg.TopThemeCount == 0 {
		cfg.TopThemeCount = 3
	}
	if cfg.ActionCount == 0 {
		cfg.ActionCount = 3
	}
	if cfg.WeeksToAnalyze == 0 {
		cfg.WeeksToAnalyze = 1
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./pulsebot.db"
	}
	if cfg.PulseOutputDir == "" {
		cfg.PulseOutputDir = "./pulses"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate
	if cfg.OpenAIAPIKey == "" && cfg.AnthropicAPIKey == "" {
		log.Fatalf("Either openai_api_key or anthropic_api_key is required (via config.yaml or env var)")
	}
	if cfg.LLMBatchSize < 1 {
		log.Fatalf("invalid llm_batch_size '%d': must be >= 1", cfg.LLMBatchSize)
	}
	if cfg.MaxThemes < 1 {
		log.Fatalf("invalid max_themes '%d': must be >= 1", cfg.MaxThemes)
	}
	if cfg.DiscoverySample < 1 {
		log.Fatalf("invalid discovery_sample_size '%d': must be >= 1", cfg.DiscoverySample)
	}
	if cfg.TopThemeCount < 1 {
		log.Fatalf("invalid top_theme_count '%d': must be >= 1", cfg.TopThemeCount)
	}
	if cfg.ActionCount < 1 {
		log.Fatalf("invalid action_count '%d': must be >= 1", cfg.ActionCount)
	}
	if cfg.WeeksToAnalyze < 1 {
		log.Fatalf("invalid weeks_to_analyze '%d': must be >= 1", cfg.WeeksToAnalyze)
	}
	if cfg.PulseChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when pulse_channel_id is set")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
