// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plateforge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	config := Default()

	if config.Template.MaxUnits != 200 {
		t.Errorf("MaxUnits = %d, want 200", config.Template.MaxUnits)
	}
	if config.Template.CompressionLevel != -1 {
		t.Errorf("CompressionLevel = %d, want -1", config.Template.CompressionLevel)
	}
	if config.Bot.APIBaseURL != "https://api.telegram.org" {
		t.Errorf("APIBaseURL = %q", config.Bot.APIBaseURL)
	}
	if config.HTTP.Address != "127.0.0.1:8790" {
		t.Errorf("Address = %q", config.HTTP.Address)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
template:
  url: https://templates.example.net/base.plp
  max_units: 50
bot:
  token_file: /run/secrets/bot-token
`)

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if config.Template.URL != "https://templates.example.net/base.plp" {
		t.Errorf("URL = %q", config.Template.URL)
	}
	if config.Template.MaxUnits != 50 {
		t.Errorf("MaxUnits = %d, want 50", config.Template.MaxUnits)
	}
	// Untouched sections keep defaults.
	if config.Bot.SessionTTLMinutes != 30 {
		t.Errorf("SessionTTLMinutes = %d, want default 30", config.Bot.SessionTTLMinutes)
	}
}

func TestLoadFileValidates(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"max units too large", "template:\n  max_units: 500\n", "max_units"},
		{"max units zero", "template:\n  max_units: 0\n", "max_units"},
		{"bad compression level", "template:\n  compression_level: 42\n", "compression_level"},
		{"zero ttl", "bot:\n  session_ttl_minutes: 0\n", "session_ttl_minutes"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, test.content))
			if err == nil {
				t.Fatal("LoadFile should fail validation")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q should mention %q", err, test.wantErr)
			}
		})
	}
}

func TestVariableExpansion(t *testing.T) {
	t.Setenv("PLATEFORGE_TEST_DIR", "/srv/plateforge")

	path := writeConfig(t, `
store:
  path: ${PLATEFORGE_TEST_DIR}/viplist.snap
http:
  admin_code_file: ${PLATEFORGE_TEST_UNSET:-/etc/plateforge/admin}
`)

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if config.Store.Path != "/srv/plateforge/viplist.snap" {
		t.Errorf("Store.Path = %q", config.Store.Path)
	}
	if config.HTTP.AdminCodeFile != "/etc/plateforge/admin" {
		t.Errorf("AdminCodeFile = %q, want the :- default", config.HTTP.AdminCodeFile)
	}
}

func TestLoadHonorsEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, "template:\n  max_units: 25\n")
	t.Setenv("PLATEFORGE_CONFIG", path)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Template.MaxUnits != 25 {
		t.Errorf("MaxUnits = %d, want 25", config.Template.MaxUnits)
	}
}

func TestLoadWithoutEnvironmentReturnsDefaults(t *testing.T) {
	t.Setenv("PLATEFORGE_CONFIG", "")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if config.Template.MaxUnits != 200 {
		t.Errorf("MaxUnits = %d, want default", config.Template.MaxUnits)
	}
}
