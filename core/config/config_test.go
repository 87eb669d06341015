package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
line:
  channel_secret: secret
  channel_token: token
zoom:
  api_key: key
  api_secret: apisecret
google:
  credentials_json: '{"client_email":"x","private_key":"y"}'
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host default = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port default = %d", cfg.Server.Port)
	}
	if cfg.Zoom.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone default = %q", cfg.Zoom.Timezone)
	}
	if cfg.Google.CalendarID != "primary" {
		t.Errorf("calendar default = %q", cfg.Google.CalendarID)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("sslmode default = %q", cfg.Database.SSLMode)
	}
	if cfg.Database.MaxConnections != 10 {
		t.Errorf("max_connections default = %d", cfg.Database.MaxConnections)
	}
	if got := cfg.ListenAddr(); got != "0.0.0.0:8000" {
		t.Errorf("ListenAddr = %q", got)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, `
line:
  channel_secret: secret
`))
	if err == nil {
		t.Fatal("expected error for missing required fields")
	}
	for _, want := range []string{"line.channel_token", "zoom.api_key", "zoom.api_secret", "google.credentials_json"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ZOOM_API_KEY", "env-key")
	t.Setenv("PORT", "9000")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Zoom.APIKey != "env-key" {
		t.Errorf("env override lost: %q", cfg.Zoom.APIKey)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port env override lost: %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
