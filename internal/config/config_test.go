package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name: "valid configuration",
			envVars: map[string]string{
				"SHS_SERVER_URL": "http://localhost:18080",
			},
			wantErr: false,
		},
		{
			name:    "no server configured",
			envVars: map[string]string{},
			wantErr: true,
		},
		{
			name: "invalid URL scheme",
			envVars: map[string]string{
				"SHS_SERVER_URL": "localhost:18080",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for k, v := range tt.envVars {
				_ = os.Setenv(k, v)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	os.Clearenv()
	_ = os.Setenv("SHS_SERVER_URL", "http://localhost:18080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Timeout)
	}

	if cfg.MaxRetries != 3 {
		t.Errorf("Expected default max_retries 3, got %d", cfg.MaxRetries)
	}

	if cfg.RateLimit != 100 {
		t.Errorf("Expected default rate_limit 100, got %d", cfg.RateLimit)
	}

	if !cfg.EnableRateLimit {
		t.Error("Expected EnableRateLimit to be true by default")
	}

	sc, ok := cfg.Server("")
	if !ok {
		t.Fatal("Expected default server to be resolvable")
	}
	if !sc.VerifyTLS() {
		t.Error("Expected TLS verification to be on by default")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	os.Clearenv()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
servers:
  prod:
    url: http://shs-prod:18080
    default: true
  staging:
    url: http://shs-staging:18080
    auth:
      username: spark
      password: hunter2
timeout: 45s
log_level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	_ = os.Setenv("SHS_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if len(cfg.Servers) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(cfg.Servers))
	}
	name, sc := cfg.DefaultServer()
	if name != "prod" {
		t.Errorf("Expected default server prod, got %q", name)
	}
	if sc.URL != "http://shs-prod:18080" {
		t.Errorf("Unexpected default URL %q", sc.URL)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Expected timeout 45s, got %v", cfg.Timeout)
	}
	if cfg.Servers["staging"].Auth.Username != "spark" {
		t.Error("Expected staging username from file")
	}
}

func TestValidateMultipleDefaults(t *testing.T) {
	cfg := &Config{
		Servers: map[string]ServerConfig{
			"a": {URL: "http://a:18080", Default: true},
			"b": {URL: "http://b:18080", Default: true},
		},
		Timeout:  time.Second,
		LogLevel: "info",
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for two default servers")
	}
}

func TestValidateNoDefaultAmongMany(t *testing.T) {
	cfg := &Config{
		Servers: map[string]ServerConfig{
			"a": {URL: "http://a:18080"},
			"b": {URL: "http://b:18080"},
		},
		Timeout:  time.Second,
		LogLevel: "info",
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when no server is marked default")
	}
}

func TestConfigRedact(t *testing.T) {
	cfg := &Config{
		Servers: map[string]ServerConfig{
			"prod": {
				URL: "http://shs:18080",
				Auth: AuthConfig{
					Password: "super-secret", // pragma: allowlist secret
					Token:    "token-123456789",
				},
			},
		},
	}

	redacted := cfg.Redact()

	if redacted.Servers["prod"].Auth.Password != "***REDACTED***" {
		t.Error("Password should be redacted")
	}
	if redacted.Servers["prod"].Auth.Token == cfg.Servers["prod"].Auth.Token {
		t.Error("Token should be masked")
	}
	if cfg.Servers["prod"].Auth.Password != "super-secret" { // pragma: allowlist secret
		t.Error("Original config should be unchanged")
	}
}

func TestMaskToken(t *testing.T) {
	if got := MaskToken("short"); got != "***" {
		t.Errorf("Expected ***, got %q", got)
	}
	if got := MaskToken("abcdefghijkl"); got != "abcd...ijkl" {
		t.Errorf("Expected abcd...ijkl, got %q", got)
	}
	if got := MaskToken(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}
