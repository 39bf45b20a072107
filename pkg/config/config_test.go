package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Catalog.TopN != 50 {
		t.Fatalf("expected top n 50, got %d", cfg.Catalog.TopN)
	}
	if !cfg.Catalog.Tax().Equal(decimal.RequireFromString("0.08")) {
		t.Fatalf("unexpected tax rate %s", cfg.Catalog.Tax())
	}
	if cfg.ImageGen.MaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.ImageGen.MaxAttempts)
	}
	if cfg.ImageGen.RequestDelay != 2500*time.Millisecond {
		t.Fatalf("unexpected request delay %v", cfg.ImageGen.RequestDelay)
	}
	if !cfg.ImageGen.Resume {
		t.Fatal("resume should default to true")
	}
	if cfg.S3.Enabled() || cfg.Redis.Enabled() || cfg.DB.Enabled() || cfg.BigQuery.Enabled() {
		t.Fatal("optional sinks should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/tmp/out")
	t.Setenv(EnvCatalogTopN, "10")
	t.Setenv(EnvImageGenInitialBackoff, "250ms")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Paths.ImageDir() != "/tmp/out/product_images" {
		t.Fatalf("unexpected image dir %q", cfg.Paths.ImageDir())
	}
	if cfg.Catalog.TopN != 10 {
		t.Fatalf("expected top n override, got %d", cfg.Catalog.TopN)
	}
	if cfg.ImageGen.InitialBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected backoff %v", cfg.ImageGen.InitialBackoff)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis enabled when url is set")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		EnvCatalogTopN:         "0",
		EnvCatalogTaxRate:      "eight percent",
		EnvImageGenMaxAttempts: "0",
		EnvImageGenWidth:       "-1",
		EnvDBDriver:            "mysql",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", env, value)
			}
		})
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
