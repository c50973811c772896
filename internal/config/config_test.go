package config

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/youtrait")
	t.Setenv("FILTER_EXTRA_WORDS", "troll,scam")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.ChangeFeedDriver != ChangeFeedPostgres {
		t.Fatalf("expected postgres feed by default, got %q", cfg.ChangeFeedDriver)
	}
	if cfg.ChangeFeedChannel != "row_changes" {
		t.Fatalf("unexpected channel %q", cfg.ChangeFeedChannel)
	}
	if len(cfg.FilterExtraWords) != 2 || cfg.FilterExtraWords[1] != "scam" {
		t.Fatalf("unexpected extra words %+v", cfg.FilterExtraWords)
	}
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfig_RedisFeedNeedsAddr(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/youtrait")
	t.Setenv("CHANGEFEED_DRIVER", " Redis ")
	t.Setenv("REDIS_ADDR", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for redis feed without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ChangeFeedDriver != ChangeFeedRedis {
		t.Fatalf("expected normalized driver, got %q", cfg.ChangeFeedDriver)
	}
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/youtrait")
	t.Setenv("CHANGEFEED_DRIVER", "kafka")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
