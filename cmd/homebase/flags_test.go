package main

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/dukerupert/homebase/internal/config"
)

func TestApplyFlagsOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("log-level", "", "")
	if err := fs.Parse([]string{"--db", "/tmp/h.db"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := config.Default()
	cfg.Log.Level = "warn"
	if err := applyFlags(fs, cfg); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.Database.Path != "/tmp/h.db" {
		t.Errorf("db path = %q, want /tmp/h.db", cfg.Database.Path)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want warn (unchanged)", cfg.Log.Level)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{{"serve"}, {"family", "create"}, {"member", "add"}, {"vapid-keys"}} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Errorf("command %v not registered", path)
		}
	}
}
