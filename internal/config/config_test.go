package config

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("unexpected openai key: %q", cfg.OpenAIAPIKey)
	}
	if cfg.ProductName != "Our App" {
		t.Fatalf("unexpected product name default: %q", cfg.ProductName)
	}
	if cfg.LLMBatchSize != 20 {
		t.Fatalf("unexpected batch size default: %d", cfg.LLMBatchSize)
	}
	if cfg.MaxThemes != 5 {
		t.Fatalf("unexpected max themes default: %d", cfg.MaxThemes)
	}
	if cfg.DiscoverySample != 100 {
		t.Fatalf("unexpected discovery sample default: %d", cfg.DiscoverySample)
	}
	if cfg.TopThemeCount != 3 || cfg.ActionCount != 3 {
		t.Fatalf("unexpected top/action defaults: %d/%d", cfg.TopThemeCount, cfg.ActionCount)
	}
	if cfg.WeeksToAnalyze != 1 {
		t.Fatalf("unexpected weeks default: %d", cfg.WeeksToAnalyze)
	}
	if cfg.DBPath != "./pulsebot.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.PulseOutputDir != "./pulses" {
		t.Fatalf("unexpected output dir default: %q", cfg.PulseOutputDir)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
product_name: "YAML App"
anthropic_api_key: "yaml-anthropic"
llm_batch_size: 10
max_themes: 4
timezone: "America/Los_Angeles"
db_path: "/tmp/yaml.db"
pulse_output_dir: "/tmp/yaml-pulses"
external_http_timeout_seconds: 75
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("PRODUCT_NAME", "Env App")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("LLM_BATCH_SIZE", "25")

	cfg := LoadConfig()

	if cfg.ProductName != "Env App" {
		t.Fatalf("expected product name from env override, got %q", cfg.ProductName)
	}
	if cfg.OpenAIAPIKey != "sk-env" || cfg.AnthropicAPIKey != "yaml-anthropic" {
		t.Fatalf("unexpected keys: openai=%q anthropic=%q", cfg.OpenAIAPIKey, cfg.AnthropicAPIKey)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected db path from env override, got %q", cfg.DBPath)
	}
	if cfg.LLMBatchSize != 25 {
		t.Fatalf("expected batch size from env override, got %d", cfg.LLMBatchSize)
	}
	if cfg.MaxThemes != 4 {
		t.Fatalf("expected max themes from yaml, got %d", cfg.MaxThemes)
	}
	if cfg.PulseOutputDir != "/tmp/yaml-pulses" {
		t.Fatalf("expected output dir from yaml, got %q", cfg.PulseOutputDir)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 75 {
		t.Fatalf("expected http timeout from yaml, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("PB_TEST_STR", "value")
	envOverride(&s, "PB_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}
	envOverride(&s, "PB_TEST_UNSET")
	if s != "value" {
		t.Fatalf("envOverride overwrote with unset var, got %q", s)
	}

	i := 1
	t.Setenv("PB_TEST_INT", "42")
	envOverrideInt(&i, "PB_TEST_INT")
	if i != 42 {
		t.Fatalf("envOverrideInt failed, got %d", i)
	}
}

func TestLoadConfigMissingAPIKeysFatal(t *testing.T) {
	if os.Getenv("TEST_NO_KEYS_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Unsetenv("OPENAI_API_KEY")
		_ = os.Unsetenv("ANTHROPIC_API_KEY")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigMissingAPIKeysFatal")
	cmd.Env = append(os.Environ(), "TEST_NO_KEYS_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}

func TestLoadConfigChannelWithoutTokenFatal(t *testing.T) {
	if os.Getenv("TEST_CHANNEL_FATAL") == "1" {
		_ = os.Setenv("CONFIG_PATH", filepath.Join(os.TempDir(), "no-config.yaml"))
		_ = os.Setenv("OPENAI_API_KEY", "sk-test")
		_ = os.Setenv("PULSE_CHANNEL_ID", "C123")
		_ = os.Unsetenv("SLACK_BOT_TOKEN")
		LoadConfig()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestLoadConfigChannelWithoutTokenFatal")
	cmd.Env = append(os.Environ(), "TEST_CHANNEL_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with failure")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got: %v", err)
	}
}
