package config

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// validTestConfig returns a fully populated configuration that passes
// Validate, built from the same defaults the loader starts with.
func validTestConfig(id string) *Config {
	cfg := NewLoader().getDefaults()
	cfg.Platform.Org = "c360"
	cfg.Platform.ID = id
	cfg.Stream.Endpoint = "wss://feeds.example.com/live"
	return cfg
}

func TestSafeConfig_ThreadSafety(t *testing.T) {
	baseConfig := validTestConfig("test-dashboard")

	safeConfig := NewSafeConfig(baseConfig)

	const numGoroutines = 100
	const numOperations = 1000

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	// Start multiple goroutines doing concurrent reads
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cfg := safeConfig.Get()
				if cfg == nil {
					errs <- fmt.Errorf("Got nil config")
					return
				}
				if cfg.Platform.ID != "test-dashboard" && cfg.Platform.ID != "updated-dashboard" {
					errs <- fmt.Errorf("Unexpected platform ID: %s", cfg.Platform.ID)
					return
				}
			}
		}()
	}

	// Start multiple goroutines doing concurrent updates
	for i := 0; i < numGoroutines/2; i++ {
		wg.Add(1)
		go func(_ int) {
			defer wg.Done()
			for j := 0; j < numOperations/10; j++ { // Fewer updates than reads
				newConfig := validTestConfig("updated-dashboard")
				if err := safeConfig.Update(newConfig); err != nil {
					errs <- fmt.Errorf("Update failed: %w", err)
					return
				}
			}
		}(i)
	}

	// Wait for all goroutines to complete
	done := make(chan bool)
	go func() {
		wg.Wait()
		close(done)
	}()

	// Wait for completion or timeout
	select {
	case <-done:
		// Check for errors
		close(errs)
		for err := range errs {
			t.Fatalf("Concurrent access error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Test timed out - possible deadlock")
	}
}

func TestSafeConfig_NilHandling(t *testing.T) {
	// Test with nil config
	safeConfig := NewSafeConfig(nil)

	cfg := safeConfig.Get()
	if cfg == nil {
		t.Error("SafeConfig.Get() should not return nil even with nil base config")
	}

	// Test updating with nil
	err := safeConfig.Update(nil)
	if err == nil {
		t.Error("SafeConfig.Update(nil) should return an error")
	}
}

func TestSafeConfig_ValidationDuringUpdate(t *testing.T) {
	safeConfig := NewSafeConfig(validTestConfig("test"))

	// Try to update with invalid config (missing required fields)
	invalidConfig := validTestConfig("")

	err := safeConfig.Update(invalidConfig)
	if err == nil {
		t.Error("Update with invalid config should fail validation")
	}

	// Original config should remain unchanged
	cfg := safeConfig.Get()
	if cfg.Platform.ID != "test" {
		t.Error("Original config was modified after failed update")
	}
}

func TestSafeConfig_DeepCopy(t *testing.T) {
	baseConfig := validTestConfig("test")
	baseConfig.NATS.URLs = []string{"nats://a:4222", "nats://b:4222"}

	safeConfig := NewSafeConfig(baseConfig)

	// Get a copy
	cfg1 := safeConfig.Get()
	cfg2 := safeConfig.Get()

	// Modify cfg1
	cfg1.Platform.ID = "modified"
	cfg1.NATS.URLs = append(cfg1.NATS.URLs, "nats://c:4222")
	cfg1.Stream.Endpoint = "wss://other.example.com/live"

	// cfg2 should be unchanged
	if cfg2.Platform.ID != "test" {
		t.Error("Deep copy failed - cfg2 was affected by cfg1 modification")
	}

	if len(cfg2.NATS.URLs) != 2 {
		t.Error("Deep copy failed - cfg2 NATS URLs were affected")
	}

	if cfg2.Stream.Endpoint != "wss://feeds.example.com/live" {
		t.Error("Deep copy failed - cfg2 stream endpoint was affected")
	}

	// Original config should also be unchanged
	originalCfg := safeConfig.Get()
	if originalCfg.Platform.ID != "test" {
		t.Error("Original config was modified")
	}
}

func TestConfigClone(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "nil config",
			config: nil,
		},
		{
			name:   "empty config",
			config: &Config{},
		},
		{
			name: "full config",
			config: func() *Config {
				cfg := validTestConfig("test")
				cfg.NATS.URLs = []string{"nats://localhost:4222"}
				cfg.NATS.ReconnectWait = 2 * time.Second
				return cfg
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clone := tt.config.Clone()

			if tt.config == nil {
				if clone == nil {
					t.Error("Clone of nil should return empty config, not nil")
				}
				return
			}

			// Verify deep copy by modifying original
			if tt.config.NATS.URLs != nil {
				originalLen := len(tt.config.NATS.URLs)
				tt.config.NATS.URLs = append(tt.config.NATS.URLs, "nats://extra:4222")

				if len(clone.NATS.URLs) != originalLen {
					t.Error("Clone was affected by original modification")
				}
			}

			if tt.config.Stream.Endpoint != clone.Stream.Endpoint {
				t.Error("Clone lost the stream endpoint")
			}
		})
	}
}
