package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaultsAndSubcommand(t *testing.T) {
	cfg, rest, err := Load([]string{"daily"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}

	if len(rest) != 1 || rest[0] != "daily" {
		t.Errorf("Expected positional subcommand preserved, got %v", rest)
	}
	if cfg.DedupWindowDays != 7 {
		t.Errorf("Expected default dedup window 7, got %d", cfg.DedupWindowDays)
	}
	if cfg.ExclusionThreshold != 3 {
		t.Errorf("Expected default exclusion threshold 3, got %d", cfg.ExclusionThreshold)
	}
	if cfg.DailyNewsCount != 5 || cfg.DailyArticleCount != 3 {
		t.Errorf("Expected default daily counts 5/3, got %d/%d", cfg.DailyNewsCount, cfg.DailyArticleCount)
	}
	if cfg.GroqModel != "llama-3.3-70b-versatile" {
		t.Errorf("Unexpected default model %q", cfg.GroqModel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, rest, err := Load([]string{"--port", "9000", "--daily-article-count", "4", "server"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %q", cfg.Port)
	}
	if cfg.DailyArticleCount != 4 {
		t.Errorf("Expected article count 4, got %d", cfg.DailyArticleCount)
	}
	if len(rest) != 1 || rest[0] != "server" {
		t.Errorf("Expected server subcommand, got %v", rest)
	}
}

func TestLoadReturnsDistinctConfigs(t *testing.T) {
	first, _, err := Load([]string{"daily"})
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Load([]string{"--port", "9000", "weekly"})
	if err != nil {
		t.Fatal(err)
	}

	if first.Port == second.Port {
		t.Errorf("Expected independent configs, both have port %q", first.Port)
	}
}
