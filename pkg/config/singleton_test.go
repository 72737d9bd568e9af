package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func resetGlobal() {
	globalConfig = nil
	initOnce = *new(sync.Once)
}

func TestInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, `
server:
  address: "127.0.0.1:8080"
`)

	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Server.Address != "127.0.0.1:8080" {
		t.Errorf("expected address %q, got %q", "127.0.0.1:8080", cfg.Server.Address)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	first := writeConfig(t, "server:\n  address: \"127.0.0.1:8080\"\n")
	second := writeConfig(t, "server:\n  address: \"0.0.0.0:9090\"\n")

	if err := Initialize(first); err != nil {
		t.Fatalf("first initialize failed: %v", err)
	}
	if err := Initialize(second); err != nil {
		t.Fatalf("second initialize failed: %v", err)
	}

	if got := GetConfig().Server.Address; got != "127.0.0.1:8080" {
		t.Errorf("expected first config to win, got %q", got)
	}
}

func TestReloadConfig_KeepsPreviousOnError(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, "git_services:\n  gitlab_enabled: true\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error")
	}
	if !GetConfig().GitServices.GitLabEnabled {
		t.Error("previous configuration should remain after failed reload")
	}

	if err := os.WriteFile(path, []byte("git_services:\n  bitbucket_enabled: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if cfg != GetConfig() {
		t.Error("reload should return the new global config")
	}
	if cfg.GitServices.GitLabEnabled || !cfg.GitServices.BitbucketEnabled {
		t.Errorf("unexpected git services after reload: %+v", cfg.GitServices)
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when config is not initialized")
		}
	}()
	MustGetConfig()
}

func TestSetConfig(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	cfg := NewDefaultConfig()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("SetConfig did not replace the global config")
	}
	if MustGetConfig() != cfg {
		t.Error("MustGetConfig returned a different config")
	}
}

func TestInitialize_MissingFile(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if err := Initialize(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if GetConfig().Server.Address != DefaultAddress {
		t.Errorf("expected default address, got %q", GetConfig().Server.Address)
	}
}
