package config

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"family-tree-go/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func TestLoadRequiresTOTPKey(t *testing.T) {
	t.Setenv("AUTH_TOTP_KEY", "")

	_, err := Load(testLogger())
	if err == nil || !strings.Contains(err.Error(), "AUTH_TOTP_KEY") {
		t.Fatalf("expected AUTH_TOTP_KEY error, got %v", err)
	}
}

func TestLoadRejectsBadTOTPKey(t *testing.T) {
	for _, value := range []string{"not-hex", "abcd"} {
		t.Setenv("AUTH_TOTP_KEY", value)
		if _, err := Load(testLogger()); err == nil {
			t.Fatalf("expected error for key %q", value)
		}
	}
}

func TestLoadParsesTOTPKey(t *testing.T) {
	t.Setenv("AUTH_TOTP_KEY", strings.Repeat("ab", 32))

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.Auth.TOTPKey) != 32 {
		t.Fatalf("expected 32-byte key, got %d", len(cfg.Auth.TOTPKey))
	}
	if cfg.Auth.CookieName != "family_session" {
		t.Fatalf("unexpected cookie name %q", cfg.Auth.CookieName)
	}
}
