package config

import (
	"os"
	"testing"
	"time"
)

// chdirTemp 切換到沒有 .env 的暫存目錄
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
		}
		if cfg.Recommendation.DefaultCount != 3 {
			t.Errorf("Expected default count 3, got %d", cfg.Recommendation.DefaultCount)
		}
		if cfg.Recommendation.DefaultProvider != "" {
			t.Errorf("Expected no default provider, got %q", cfg.Recommendation.DefaultProvider)
		}
		if cfg.Cache.Driver != "memory" {
			t.Errorf("Expected memory cache driver, got %q", cfg.Cache.Driver)
		}
		if cfg.DedupWindow != time.Second {
			t.Errorf("Expected dedup window 1s, got %v", cfg.DedupWindow)
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("API_BASE_URL", "http://backend.test/api")
		t.Setenv("GENERATION_PROVIDER", "deepseek")
		t.Setenv("RECOMMENDATION_COUNT", "5")
		t.Setenv("PORT", "9090")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Backend.BaseURL != "http://backend.test/api" {
			t.Errorf("Expected base url override, got %q", cfg.Backend.BaseURL)
		}
		if cfg.Recommendation.DefaultProvider != "deepseek" {
			t.Errorf("Expected provider deepseek, got %q", cfg.Recommendation.DefaultProvider)
		}
		if cfg.Recommendation.DefaultCount != 5 {
			t.Errorf("Expected count 5, got %d", cfg.Recommendation.DefaultCount)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
		}
	})

	t.Run("UnknownCacheDriver", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("CACHE_DRIVER", "etcd")

		if _, err := LoadConfig(); err == nil {
			t.Fatal("Expected an error for unknown cache driver, got nil")
		}
	})
}
