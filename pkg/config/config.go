// Package config holds the tunables of an emberdb engine instance and
// persists them alongside the data directory so a reopen sees the same
// settings it was created with.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultManifestFileName is the name of the persisted config file inside
	// the engine's root directory.
	DefaultManifestFileName = "MANIFEST"

	// CurrentManifestVersion is bumped whenever the Config shape changes in a
	// backwards-incompatible way.
	CurrentManifestVersion = 1

	// DefaultBlockSize is the WAL block size used when none is specified.
	DefaultBlockSize = 32 * 1024

	// DefaultMemtableFlushLimit is the entry-count capacity of a memtable
	// before it freezes and hands off to the flush collaborator.
	DefaultMemtableFlushLimit = 4096

	// walHeaderSize mirrors walrecord.HeaderSize. It is a local copy, so
	// package config imports no other emberdb package.
	walHeaderSize = 7
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrManifestNotFound = errors.New("manifest not found")
	ErrInvalidManifest  = errors.New("invalid manifest")
)

// SyncMode controls when the WAL calls fsync.
type SyncMode int

const (
	// SyncNone never syncs explicitly; the OS decides when pages are flushed.
	SyncNone SyncMode = iota
	// SyncBatch syncs once WALSyncBytes have been written since the last sync.
	SyncBatch
	// SyncImmediate syncs after every append (the durability barrier from
	// spec.md §4.4's Sync()).
	SyncImmediate
)

// Config carries the settings for one engine instance. It is safe for
// concurrent use; callers should go through Update for mutations.
type Config struct {
	Version int `json:"version"`

	// RootDir is the directory the engine owns; wal.log and MANIFEST live
	// directly inside it.
	RootDir string `json:"root_dir"`

	// WAL configuration
	WALSyncMode  SyncMode `json:"wal_sync_mode"`
	WALSyncBytes int64    `json:"wal_sync_bytes"`
	WALBlockSize int      `json:"wal_block_size"`

	// Memtable configuration
	MemtableFlushLimit int `json:"memtable_flush_limit"`

	mu sync.RWMutex
}

// NewDefaultConfig returns a Config with recommended defaults rooted at
// rootDir.
func NewDefaultConfig(rootDir string) *Config {
	return &Config{
		Version: CurrentManifestVersion,

		RootDir: rootDir,

		WALSyncMode:  SyncBatch,
		WALSyncBytes: 1024 * 1024,
		WALBlockSize: DefaultBlockSize,

		MemtableFlushLimit: DefaultMemtableFlushLimit,
	}
}

// Validate checks the configuration's invariants.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if c.RootDir == "" {
		return fmt.Errorf("%w: root directory not specified", ErrInvalidConfig)
	}

	if c.WALBlockSize <= walHeaderSize {
		return fmt.Errorf("%w: WAL block size must exceed the record header size (%d)", ErrInvalidConfig, walHeaderSize)
	}

	if c.MemtableFlushLimit <= 0 {
		return fmt.Errorf("%w: memtable flush limit must be positive", ErrInvalidConfig)
	}

	return nil
}

// LoadConfigFromManifest loads the configuration persisted under rootDir.
func LoadConfigFromManifest(rootDir string) (*Config, error) {
	manifestPath := filepath.Join(rootDir, DefaultManifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestNotFound
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveManifest persists the configuration to rootDir, creating it if needed.
func (c *Config) SaveManifest(rootDir string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	manifestPath := filepath.Join(rootDir, DefaultManifestFileName)
	tempPath := manifestPath + ".tmp"

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := os.Rename(tempPath, manifestPath); err != nil {
		return fmt.Errorf("failed to rename manifest: %w", err)
	}

	return nil
}

// Update applies fn to the configuration under the write lock.
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}
