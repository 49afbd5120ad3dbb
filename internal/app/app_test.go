package app

import (
	"context"
	"log"
	"strings"
	"testing"

	"orbit/internal/config"
)

func TestNewWithDevDefaults(t *testing.T) {
	a, err := New(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("dev defaults should wire without backends: %v", err)
	}
	defer a.Close()

	if a.Store != nil || a.Cache != nil {
		t.Fatalf("no dsn or redis url configured, expected nil backends")
	}
	if a.Handler == nil || a.Predict == nil {
		t.Fatalf("handler and prediction service must always be wired")
	}
}

func TestNoopProviderRequiresDevMode(t *testing.T) {
	cfg := config.Default()
	cfg.Dev.Mode = false

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("noop provider outside dev mode should fail startup")
	}

	cfg.Model.Provider = "inference"
	cfg.Model.URL = "https://models.example.com/fake-news"
	if _, err := New(context.Background(), cfg); err != nil {
		t.Fatalf("inference provider should start outside dev mode: %v", err)
	}
}

func TestAuxProvidersGatedByDevMode(t *testing.T) {
	cfg := config.Default()
	cfg.Dev.Mode = false
	cfg.Model.Provider = "inference"
	cfg.Model.URL = "https://models.example.com/fake-news"
	cfg.Aux.Enabled = true

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("noop aux providers outside dev mode should fail startup")
	}

	cfg.Aux.FakeNews.Provider = "inference"
	cfg.Aux.FakeNews.URL = "https://models.example.com/aux-fake-news"
	cfg.Aux.Sarcasm.Provider = "inference"
	cfg.Aux.Sarcasm.URL = "https://models.example.com/sarcasm"
	if _, err := New(context.Background(), cfg); err != nil {
		t.Fatalf("inference aux providers should start outside dev mode: %v", err)
	}
}

func TestNewLoggerDebugAddsCallSites(t *testing.T) {
	if flags := newLogger("debug").Flags(); flags&log.Lshortfile == 0 {
		t.Fatalf("debug level should log call sites, flags=%d", flags)
	}
	if flags := newLogger("info").Flags(); flags&log.Lshortfile != 0 {
		t.Fatalf("info level should not log call sites, flags=%d", flags)
	}
	if prefix := newLogger("info").Prefix(); !strings.HasPrefix(prefix, "orbit") {
		t.Fatalf("unexpected logger prefix %q", prefix)
	}
}
