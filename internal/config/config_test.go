package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("GRANT_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
}

func TestGateConfig_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"GrantExpiry", cfg.Gate.GrantExpiry, 10 * time.Minute},
		{"ChallengeTTL", cfg.Gate.ChallengeTTL, 2 * time.Minute},
		{"RateLimitWindow", cfg.Gate.RateLimitWindow, 15 * time.Minute},
		{"CleanupInterval", cfg.Gate.CleanupInterval, 1 * time.Hour},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Gate.MaxFailedPerPair != 5 {
		t.Errorf("MaxFailedPerPair: got %d, want 5", cfg.Gate.MaxFailedPerPair)
	}
}

func TestGateConfig_CustomValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("CHALLENGE_TTL", "90s")
	os.Setenv("RATE_LIMIT_WINDOW", "30m")
	os.Setenv("RATE_LIMIT_MAX_FAILED", "3")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Gate.ChallengeTTL != 90*time.Second {
		t.Errorf("ChallengeTTL: got %v, want 90s", cfg.Gate.ChallengeTTL)
	}
	if cfg.Gate.RateLimitWindow != 30*time.Minute {
		t.Errorf("RateLimitWindow: got %v, want 30m", cfg.Gate.RateLimitWindow)
	}
	if cfg.Gate.MaxFailedPerPair != 3 {
		t.Errorf("MaxFailedPerPair: got %d, want 3", cfg.Gate.MaxFailedPerPair)
	}
}

func TestGateConfig_InvalidDuration_FallsBack(t *testing.T) {
	setRequiredEnv()
	os.Setenv("CHALLENGE_TTL", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Gate.ChallengeTTL != 2*time.Minute {
		t.Errorf("ChallengeTTL with invalid value: got %v, want 2m", cfg.Gate.ChallengeTTL)
	}
}

func TestLoad_MissingGrantSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() without GRANT_SECRET should fail")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRANT_SECRET", "test-secret-32-characters-long!!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() without DB_PASSWORD should fail")
	}
}

func TestValidateGrantSecret(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		env        string
		shouldFail bool
	}{
		{"valid development secret", "sixteen-chars-ok", "development", false},
		{"too short for development", "short", "development", true},
		{"development length in production", "sixteen-chars-ok", "production", true},
		{"valid production secret", "this-secret-is-32-characters-ok!", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGrantSecret(tt.secret, tt.env)
			if tt.shouldFail && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.shouldFail && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestLoad_ProductionRequiresAdminKeyHash(t *testing.T) {
	os.Setenv("GRANT_SECRET", "this-secret-is-32-characters-ok!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() in production without ADMIN_KEY_HASH should fail")
	}

	os.Setenv("ADMIN_KEY_HASH", "$2a$12$abcdefghijklmnopqrstuv")
	if _, err := Load(); err != nil {
		t.Errorf("Load() with ADMIN_KEY_HASH failed: %v", err)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	setRequiredEnv()
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	proxies := cfg.Server.TrustedProxies
	if len(proxies) != 2 || proxies[0] != "10.0.0.0/8" || proxies[1] != "172.16.0.0/12" {
		t.Errorf("TrustedProxies: got %v", proxies)
	}
}
