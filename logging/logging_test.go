package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"trace":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		" off ":   zapcore.FatalLevel,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if got != want {
			t.Errorf("%q: expect %s, got %s", raw, want, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expect error for unknown level")
	}
}

func TestNewEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	logger, err := New("debug")
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("env level must override the configured one")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("expect error level enabled")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	if _, err := New("loud"); err == nil {
		t.Fatal("expect error for unknown level")
	}
}
