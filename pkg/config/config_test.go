package config

import (
	"strings"
	"testing"
)

func TestLoadRedditCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("REDDIT_USER_AGENT", "agent/1.0")

	creds, err := LoadRedditCredentials()
	if err != nil {
		t.Fatalf("LoadRedditCredentials() error = %v", err)
	}
	if creds.ClientID != "id" || creds.ClientSecret != "secret" || creds.UserAgent != "agent/1.0" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestLoadRedditCredentials_NamesMissingVariables(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	t.Setenv("REDDIT_USER_AGENT", "")

	_, err := LoadRedditCredentials()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	msg := err.Error()
	if strings.Contains(msg, "REDDIT_CLIENT_ID") {
		t.Errorf("error should not name the variable that was set: %v", err)
	}
	for _, want := range []string{"REDDIT_CLIENT_SECRET", "REDDIT_USER_AGENT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should name %s", msg, want)
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", cfg.MaxIterations, DefaultMaxIterations)
	}
	if cfg.FilterPercentile != DefaultFilterPercentile {
		t.Errorf("FilterPercentile = %v, want %v", cfg.FilterPercentile, DefaultFilterPercentile)
	}
	if cfg.SortComments {
		t.Error("SortComments should default to false")
	}
}
