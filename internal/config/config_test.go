// Copyright (c) 2026 Veloretti
// Cambiodesk - currency exchange administration console
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Point the user config dir somewhere empty so a developer's real
	// cambiodesk.yaml cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := &cobra.Command{Use: "test"}
	cfg, err := LoadConfig[Config](cmd, Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("default database.type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Language != "en" {
		t.Errorf("default language = %q, want en", cfg.Language)
	}
	if cfg.Sync.RefreshInterval != 30 {
		t.Errorf("default sync.refresh_interval = %d, want 30", cfg.Sync.RefreshInterval)
	}
}

func TestLoadConfig_FileAndEnvPrecedence(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG_CONFIG_HOME has no effect on windows")
	}
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, "cambiodesk")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := "database:\n  type: mysql\n  dsn: user:pass@/cambiodesk\nlanguage: es\n"
	if err := os.WriteFile(filepath.Join(dir, "cambiodesk.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{Use: "test"}
	cfg, err := LoadConfig[Config](cmd, Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Type != "mysql" || cfg.Language != "es" {
		t.Fatalf("file values not applied: type=%q language=%q", cfg.Database.Type, cfg.Language)
	}

	// Environment overrides the file.
	t.Setenv("CAMBIODESK_DATABASE_TYPE", "postgres")
	cfg, err = LoadConfig[Config](cmd, Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig with env: %v", err)
	}
	if cfg.Database.Type != "postgres" {
		t.Fatalf("env override not applied, got %q", cfg.Database.Type)
	}
}

func TestLoadConfig_ExplicitPathWins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("language: es\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{Use: "test"}
	cfg, err := LoadConfig[Config](cmd, Defaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Language != "es" {
		t.Fatalf("explicit config file not applied, got language=%q", cfg.Language)
	}
}
