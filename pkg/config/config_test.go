package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	rootDir := "/tmp/testdb"
	cfg := NewDefaultConfig(rootDir)

	if cfg.Version != CurrentManifestVersion {
		t.Errorf("expected version %d, got %d", CurrentManifestVersion, cfg.Version)
	}

	if cfg.RootDir != rootDir {
		t.Errorf("expected root dir %s, got %s", rootDir, cfg.RootDir)
	}

	if cfg.WALSyncMode != SyncBatch {
		t.Errorf("expected WAL sync mode %d, got %d", SyncBatch, cfg.WALSyncMode)
	}

	if cfg.WALBlockSize != DefaultBlockSize {
		t.Errorf("expected WAL block size %d, got %d", DefaultBlockSize, cfg.WALBlockSize)
	}

	if cfg.MemtableFlushLimit != DefaultMemtableFlushLimit {
		t.Errorf("expected memtable flush limit %d, got %d", DefaultMemtableFlushLimit, cfg.MemtableFlushLimit)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig("/tmp/testdb")

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected string
	}{
		{
			name: "invalid version",
			mutate: func(c *Config) {
				c.Version = 0
			},
			expected: "invalid configuration: invalid version 0",
		},
		{
			name: "empty root dir",
			mutate: func(c *Config) {
				c.RootDir = ""
			},
			expected: "invalid configuration: root directory not specified",
		},
		{
			name: "block size too small",
			mutate: func(c *Config) {
				c.WALBlockSize = walHeaderSize
			},
			expected: "invalid configuration: WAL block size must exceed the record header size (7)",
		},
		{
			name: "zero flush limit",
			mutate: func(c *Config) {
				c.MemtableFlushLimit = 0
			},
			expected: "invalid configuration: memtable flush limit must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig("/tmp/testdb")
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if err.Error() != tc.expected {
				t.Errorf("expected error %q, got %q", tc.expected, err.Error())
			}
		})
	}
}

func TestConfigManifestSaveLoad(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	cfg := NewDefaultConfig(tempDir)
	cfg.MemtableFlushLimit = 16

	if err := cfg.SaveManifest(tempDir); err != nil {
		t.Fatalf("failed to save manifest: %v", err)
	}

	loadedCfg, err := LoadConfigFromManifest(tempDir)
	if err != nil {
		t.Fatalf("failed to load manifest: %v", err)
	}

	if loadedCfg.MemtableFlushLimit != cfg.MemtableFlushLimit {
		t.Errorf("expected flush limit %d, got %d", cfg.MemtableFlushLimit, loadedCfg.MemtableFlushLimit)
	}

	nonExistentDir := filepath.Join(tempDir, "nonexistent")
	_, err = LoadConfigFromManifest(nonExistentDir)
	if err != ErrManifestNotFound {
		t.Errorf("expected ErrManifestNotFound, got %v", err)
	}
}

func TestConfigUpdate(t *testing.T) {
	cfg := NewDefaultConfig("/tmp/testdb")

	cfg.Update(func(c *Config) {
		c.MemtableFlushLimit = 64
		c.WALSyncMode = SyncImmediate
	})

	if cfg.MemtableFlushLimit != 64 {
		t.Errorf("expected flush limit %d, got %d", 64, cfg.MemtableFlushLimit)
	}

	if cfg.WALSyncMode != SyncImmediate {
		t.Errorf("expected sync mode %d, got %d", SyncImmediate, cfg.WALSyncMode)
	}
}
