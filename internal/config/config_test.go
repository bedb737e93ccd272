package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.DataDir != "./data" || cfg.LogLevel != logrus.InfoLevel {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Extrapolate != "" || cfg.CORSOrigins != nil {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("EXTRAPOLATE", "1")
	t.Setenv("PORT", "3000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VERBOSE", "true")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Extrapolate != "1" || cfg.Port != "3000" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.CORSOrigins)
	}
	if !cfg.Verbose || cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("Verbose must raise the log level to debug, got %v", cfg.LogLevel)
	}
}

func TestLoad_FlagsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vertint.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /srv/data\nlog_level: warn\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(v, fs, KeyConfig, KeyPort, KeyVerbose); err != nil {
		t.Fatalf("BindFlags failed: %v", err)
	}
	if err := fs.Parse([]string{"--config", path, "--port", "9090"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.DataDir != "/srv/data" || cfg.LogLevel != logrus.WarnLevel {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestBindFlags_Unknown(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(New(), fs, KeyExtrapolate); err == nil {
		t.Error("Expected error for an option without a flag")
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	if _, err := Load(New()); err == nil {
		t.Error("Expected error for invalid log level")
	}
}
