package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Name  string        `yaml:"name"`
	Port  int           `yaml:"port"`
	Delay time.Duration `yaml:"delay"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("FILECAT_TEST_NAME", "from-env")
	p := writeFile(t, "name: ${FILECAT_TEST_NAME}\ndelay: 250ms\n")

	cfg := sample{Port: 8080}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" || cfg.Port != 8080 || cfg.Delay != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	cfg := sample{Port: 1}
	if err := Load(p, &cfg); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	cfg := sample{Port: 9000}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &cfg)
	if err != nil || found {
		t.Errorf("found = %v, err = %v", found, err)
	}
	cfg.Port = 0
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "none.yaml"), &cfg); err == nil {
		t.Error("defaults should still be validated")
	}
}
