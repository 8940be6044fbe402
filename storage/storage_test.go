package storage_test

import (
	"context"
	"slices"
	"testing"

	"github.com/kbukum/tomoflow/component"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/storage"
	_ "github.com/kbukum/tomoflow/storage/local"
	"github.com/kbukum/tomoflow/storage/memory"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg storage.Config
	cfg.ApplyDefaults()
	if cfg.Provider != storage.ProviderLocal {
		t.Errorf("Provider = %q, want local", cfg.Provider)
	}
	if cfg.BasePath != "." {
		t.Errorf("BasePath = %q, want .", cfg.BasePath)
	}
	if cfg.Region != storage.DefaultRegion {
		t.Errorf("Region = %q", cfg.Region)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"local", storage.Config{Provider: "local", BasePath: "/tmp"}, false},
		{"memory", storage.Config{Provider: "memory"}, false},
		{"unknown provider", storage.Config{Provider: "ftp"}, true},
		{"s3 without bucket", storage.Config{Provider: "s3", Region: "eu-west-1"}, true},
		{"s3 half credentials", storage.Config{Provider: "s3", Bucket: "b", Region: "r", AccessKey: "k"}, true},
		{"s3", storage.Config{Provider: "s3", Bucket: "b", Region: "r"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code: %v", err)
			}
		})
	}
}

func TestProvidersRegisteredByImport(t *testing.T) {
	got := storage.Providers()
	for _, want := range []string{"local", "memory"} {
		if !slices.Contains(got, want) {
			t.Errorf("Providers() = %v, missing %q", got, want)
		}
	}
}

func TestNewMemory(t *testing.T) {
	s, err := storage.New(storage.Config{Provider: "memory"}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*memory.Storage); !ok {
		t.Fatalf("New returned %T", s)
	}
}

func TestByteClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	bc := storage.NewByteClient(memory.New())
	if err := bc.Put(ctx, "a/b.tfb", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := bc.Get(ctx, "a/b.tfb")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q", got)
	}
	if _, err := bc.Get(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("Get(missing) error = %v, want not found", err)
	}
}

func TestComponentLifecycle(t *testing.T) {
	ctx := context.Background()
	c := storage.NewComponent(storage.Config{Provider: "local", BasePath: t.TempDir()}, logger.NewNop())

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() == nil {
		t.Fatal("Storage() is nil after Start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s (%s)", h.Status, h.Message)
	}
	if d := c.Describe(); d.Type != "storage" {
		t.Errorf("Describe().Type = %q", d.Type)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Storage() != nil {
		t.Error("Storage() should be nil after Stop")
	}
}
