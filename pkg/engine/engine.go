// Package engine provides the façade that binds configuration, the WAL,
// the Memtable, and the skip list together: put/get/remove map onto
// WAL-append then Memtable-mutate, giving the append-before-mutate
// ordering that makes replay (once an end-to-end driver exists) a sound
// recovery path. How eagerly the append itself becomes durable is
// governed by the persisted config's WAL sync policy, not this package.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emberdb/ember/pkg/common/log"
	"github.com/emberdb/ember/pkg/config"
	"github.com/emberdb/ember/pkg/event"
	"github.com/emberdb/ember/pkg/fsutil"
	"github.com/emberdb/ember/pkg/memtable"
	"github.com/emberdb/ember/pkg/skiplist"
	"github.com/emberdb/ember/pkg/stats"
	"github.com/emberdb/ember/pkg/wal"
)

var (
	// ErrEngineClosed is returned when operations are performed on a closed engine
	ErrEngineClosed = errors.New("engine is closed")
	// ErrKeyNotFound is returned when a key is not found
	ErrKeyNotFound = errors.New("key not found")
)

// Options configures Open.
type Options struct {
	// RootDir is the engine's data directory. It is created if it does
	// not already exist; opening an existing directory is idempotent.
	RootDir string
	// MemtableFlushLimit bounds the live memtable's entry count before a
	// freeze-and-flush handoff occurs. Zero selects the default.
	MemtableFlushLimit int
	// Logger receives engine lifecycle and error messages. Nil selects
	// the package default logger.
	Logger log.Logger
	// Flush is the memtable freeze collaborator. Nil installs a no-op
	// that drops the frozen snapshot, matching the spec's stance that a
	// sorted-table writer is future work.
	Flush memtable.FlushFunc
}

// Engine is the embedded key-value store façade.
type Engine struct {
	mu       sync.Mutex
	rootDir  string
	cfg      *config.Config
	wal      *wal.WAL
	memtable *memtable.MemTable
	logger   log.Logger
	stats    *stats.Collector
	closed   bool
}

// Open creates opts.RootDir if needed (idempotently re-opening it if it
// already exists), loads or creates the persisted config.Config for the
// directory (§4.6's "re-open it (idempotent)"), constructs the WAL at
// <root_dir>/wal.log using the config's block size and sync policy, and
// constructs the Memtable with the config's flush limit.
func Open(opts Options) (*Engine, error) {
	if opts.RootDir == "" {
		return nil, errors.New("engine: root dir is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	logger = logger.WithField("component", "engine")

	root, err := fsutil.MakeDir(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("engine: open root dir: %w", err)
	}
	if _, err := fsutil.OpenDir(root); err != nil {
		return nil, fmt.Errorf("engine: open root dir: %w", err)
	}

	cfg, err := loadOrCreateConfig(root, opts)
	if err != nil {
		return nil, fmt.Errorf("engine: config: %w", err)
	}

	w, err := wal.OpenWithConfig(root, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("engine: open wal: %w", err)
	}

	collector := stats.New()
	w.SetOnAppend(func(bytesWritten int64) {
		collector.RecordWALBytes(bytesWritten)
	})

	flush := opts.Flush
	if flush == nil {
		flush = memtable.NoopFlush
	}
	wrappedFlush := func(snapshot *skiplist.SkipList) {
		collector.RecordFreeze()
		flush(snapshot)
	}

	return &Engine{
		rootDir:  root,
		cfg:      cfg,
		wal:      w,
		memtable: memtable.New(cfg.MemtableFlushLimit, wrappedFlush),
		logger:   logger,
		stats:    collector,
	}, nil
}

// loadOrCreateConfig loads the MANIFEST already persisted under root, or
// (on a fresh root) builds the default config seeded from opts,
// validates it, and persists it — so a subsequent Open of the same root
// sees the exact settings it was created with rather than re-deriving
// them from whatever Options the caller happens to pass next time.
func loadOrCreateConfig(root string, opts Options) (*config.Config, error) {
	cfg, err := config.LoadConfigFromManifest(root)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, config.ErrManifestNotFound) {
		return nil, err
	}

	cfg = config.NewDefaultConfig(root)
	if opts.MemtableFlushLimit > 0 {
		cfg.MemtableFlushLimit = opts.MemtableFlushLimit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.SaveManifest(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Put encodes a Write event, appends it to the WAL, then inserts into the
// Memtable. The WAL append always precedes the Memtable mutation.
func (e *Engine) Put(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	evt := event.NewWrite(key, value)
	if err := e.appendEvent(evt); err != nil {
		return err
	}

	sizeBefore := e.memtable.Size()
	if err := e.memtable.Put(key, value); err != nil {
		if errors.Is(err, skiplist.ErrAlreadyExists) {
			return err
		}
		e.logger.Error("memtable put after durable WAL append: %v", err)
		return err
	}
	// A boundary insert freezes the table without retaining the
	// triggering pair (§4.5's resolved open question), so Size() comes
	// back at 0 rather than sizeBefore+1; only count an actual insert.
	if e.memtable.Size() > sizeBefore {
		e.stats.RecordPut()
	}
	return nil
}

// Get delegates to the Memtable, translating skiplist.ErrNotFound into
// ErrKeyNotFound.
func (e *Engine) Get(key []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	value, err := e.memtable.Get(key)
	if err != nil {
		if errors.Is(err, skiplist.ErrNotFound) {
			e.stats.RecordNotFound()
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	e.stats.RecordGet()
	return value, nil
}

// Remove encodes a Delete event, appends it to the WAL, then removes the
// key from the Memtable.
func (e *Engine) Remove(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	evt := event.NewDelete(key)
	if err := e.appendEvent(evt); err != nil {
		return err
	}

	if err := e.memtable.Remove(key); err != nil {
		if errors.Is(err, skiplist.ErrNotFound) {
			e.stats.RecordNotFound()
			return ErrKeyNotFound
		}
		return err
	}
	e.stats.RecordRemove()
	return nil
}

// appendEvent serializes and appends evt to the WAL. Whether that append
// becomes durable immediately, in a batch, or only on the next explicit
// Sync/Close is governed by e.cfg.WALSyncMode, applied inside wal.WAL.
func (e *Engine) appendEvent(evt event.Event) error {
	data := event.Serialize(evt)
	if err := e.wal.Append(data); err != nil {
		return fmt.Errorf("engine: wal append: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the engine's instrumentation counters,
// augmented with the live memtable's approximate size and age.
func (e *Engine) Stats() (stats.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.stats.GetStats()
	if err != nil {
		return stats.Snapshot{}, err
	}
	snap.MemtableBytes = e.memtable.ApproximateSize()
	snap.MemtableAge = e.memtable.Age()
	return snap, nil
}

// Close closes the Memtable (a no-op beyond releasing references, since
// it holds no file handle) then the WAL, releasing the directory handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.wal.Close()
}
