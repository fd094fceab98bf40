package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.StorageBackend != "file" || cfg.DataDir != "data" {
		t.Fatalf("unexpected storage defaults %#v", cfg)
	}
	if cfg.PersonaName != "pneuma" || cfg.PersonaFile != "" {
		t.Fatalf("unexpected persona defaults %#v", cfg)
	}
	if cfg.NuminousCooldown != 4*time.Minute || cfg.InsightThreshold != 0.5 || cfg.Seed != 0 {
		t.Fatalf("unexpected engine defaults %#v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"PNEUMA_STORAGE":           "Postgres",
		"DATABASE_URL":             "postgres://u:p@localhost:5432/pneuma",
		"PNEUMA_PERSONA":           "lumen",
		"PNEUMA_NUMINOUS_COOLDOWN": "90s",
		"PNEUMA_INSIGHT_THRESHOLD": "0.25",
		"PNEUMA_SEED":              "42",
		"LOG_LEVEL":                "debug",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.StorageBackend != "postgres" {
		t.Fatalf("unexpected storage settings %#v", cfg)
	}
	if cfg.PersonaName != "lumen" || cfg.NuminousCooldown != 90*time.Second {
		t.Fatalf("unexpected persona settings %#v", cfg)
	}
	if cfg.InsightThreshold != 0.25 || cfg.Seed != 42 {
		t.Fatalf("unexpected engine settings %#v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestParseRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"postgres without url", map[string]string{"PNEUMA_STORAGE": "postgres"}},
		{"unknown backend", map[string]string{"PNEUMA_STORAGE": "s3"}},
		{"bad duration", map[string]string{"PNEUMA_NUMINOUS_COOLDOWN": "soon"}},
		{"negative cooldown", map[string]string{"PNEUMA_NUMINOUS_COOLDOWN": "-1m"}},
		{"threshold out of range", map[string]string{"PNEUMA_INSIGHT_THRESHOLD": "1.5"}},
		{"bad seed", map[string]string{"PNEUMA_SEED": "-3"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.vars); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"debug": slog.LevelDebug,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
