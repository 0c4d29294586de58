package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvLogLevel:     "Debug",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
		EnvLogJSON:      "maybe",
	}
	cfg := DefaultConfig()
	ApplyEnv(&cfg, func(key string) string { return env[key] })

	if cfg.Level != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", cfg.Level)
	}
	if cfg.Timestamp || !cfg.NoColor || cfg.JSON {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		level zerolog.Level
		ok    bool
	}{
		"":        {zerolog.NoLevel, false},
		"trace":   {zerolog.TraceLevel, true},
		"warning": {zerolog.WarnLevel, true},
		" ERROR ": {zerolog.ErrorLevel, true},
		"off":     {zerolog.Disabled, true},
		"loud":    {zerolog.NoLevel, false},
	}
	for raw, want := range cases {
		level, ok := ParseLevel(raw)
		if level != want.level || ok != want.ok {
			t.Fatalf("ParseLevel(%q) = %s %v, want %s %v", raw, level, ok, want.level, want.ok)
		}
	}
}

func TestBuild_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := Build("formstate-cli", Config{Level: zerolog.InfoLevel, JSON: true, Out: &buf})
	logger.Debug().Msg("hidden")
	logger.Info().Str("path", "age").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON entry, got %q: %v", buf.String(), err)
	}
	want := map[string]any{"level": "info", "app": "formstate-cli", "path": "age", "message": "visible"}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := Build("", Config{Level: zerolog.WarnLevel, NoColor: true, Out: &buf})
	logger.Warn().Msg("careful")
	if !bytes.Contains(buf.Bytes(), []byte("careful")) || !bytes.Contains(buf.Bytes(), []byte("WRN")) {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}
