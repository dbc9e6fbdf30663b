package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigSupabase(t *testing.T) {
	t.Setenv("DATA_STORE", "supabase")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("CLIENT_COOKIE_SECRET", "cookie")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("PROVISION_MAX_WAIT", "2s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("expected normalized env, got %q", cfg.AppEnv)
	}
	if cfg.ProvisionMaxWait != 2*time.Second {
		t.Fatalf("expected 2s provision wait, got %s", cfg.ProvisionMaxWait)
	}
	if cfg.SecureCookies() {
		t.Fatal("expected insecure cookies in development")
	}
}

func TestLoadConfigPostgresRequiresSecret(t *testing.T) {
	t.Setenv("DATA_STORE", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/vitaup")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CLIENT_COOKIE_SECRET", "cookie")

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := &Config{DataStore: "mongo", ClientCookieSecret: "c", ProvisionMaxWait: time.Second, ClientIdleTTL: time.Second, AccessTokenTTL: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown store to fail")
	}
}

func TestGetEnvDurationFallsBack(t *testing.T) {
	t.Setenv("SOME_WAIT", "soon")
	if got := getEnvDuration("SOME_WAIT", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	t.Setenv("SOME_WAIT", "90s")
	if got := getEnvDuration("SOME_WAIT", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{"prod": "production", " Stage ": "staging", "testing": "test", "qa": "qa"}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Errorf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
