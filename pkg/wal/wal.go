// Package wal implements the on-disk write-ahead log: an append-only file
// of fixed-size blocks built from walrecord.Record. The block placement
// rule (spec.md §4.4) guarantees no record ever straddles a block
// boundary; padding is always trailing.
package wal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/emberdb/ember/pkg/common/log"
	"github.com/emberdb/ember/pkg/config"
	"github.com/emberdb/ember/pkg/walrecord"
)

// FileName is the fixed name of the WAL file inside an engine's root
// directory.
const FileName = "wal.log"

// OnAppend is called after every successful Append with the number of
// bytes written to the file, including any padding emitted to clear
// space in the block being closed out. A trimmed version of the
// teacher's multi-observer WAL hook: one callback, not a registry.
type OnAppend func(bytesWritten int64)

// WAL is an append-only file of blocks. Only the WAL writes to its file;
// file position is tracked relative to bytes written, not a cached OS
// cursor, so the file length is always known without a stat.
type WAL struct {
	blockSize int
	file      *os.File
	writer    *bufio.Writer
	fileLen   int64
	closed    bool
	logger    log.Logger
	onAppend  OnAppend
	mu        sync.Mutex

	// syncMode and syncBytes govern Append's automatic sync policy; see
	// syncAfterAppendLocked. A bare Open (no config) leaves syncMode at
	// its zero value, config.SyncNone: callers must Sync explicitly.
	syncMode       config.SyncMode
	syncBytes      int64
	bytesSinceSync int64
}

// Open opens (or creates) the WAL file at dir/wal.log using blockSize as
// the block size. blockSize must exceed walrecord.HeaderSize, per
// spec.md §4.3's precondition.
func Open(dir string, blockSize int, logger log.Logger) (*WAL, error) {
	if blockSize <= walrecord.HeaderSize {
		return nil, fmt.Errorf("wal: block size %d must exceed header size %d", blockSize, walrecord.HeaderSize)
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("wal: create directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("wal: open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: stat file: %w", err)
	}

	return &WAL{
		blockSize: blockSize,
		file:      file,
		writer:    bufio.NewWriterSize(file, 64*1024),
		fileLen:   info.Size(),
		logger:    logger.WithField("component", "wal"),
	}, nil
}

// OpenWithConfig opens a WAL using the block size from cfg, and adopts
// cfg's sync policy for automatic syncing from Append (see
// syncAfterAppendLocked).
func OpenWithConfig(dir string, cfg *config.Config, logger log.Logger) (*WAL, error) {
	w, err := Open(dir, cfg.WALBlockSize, logger)
	if err != nil {
		return nil, err
	}
	w.syncMode = cfg.WALSyncMode
	w.syncBytes = cfg.WALSyncBytes
	return w, nil
}

// SetOnAppend installs the append observer. Pass nil to remove it.
func (w *WAL) SetOnAppend(fn OnAppend) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onAppend = fn
}

// Append chunks payload into records per walrecord.Chunk and writes them
// to the file following the block placement rule: a record that does not
// fit in the space remaining in the current block causes that space to
// be zero-padded before the record starts a fresh block. No record ever
// straddles a boundary.
func (w *WAL) Append(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("wal: append on closed log")
	}

	before := w.fileLen
	records := walrecord.Chunk(payload, w.blockSize)
	for _, r := range records {
		if err := w.appendRecordLocked(r); err != nil {
			return err
		}
	}
	written := w.fileLen - before

	if err := w.syncAfterAppendLocked(written); err != nil {
		return err
	}

	if w.onAppend != nil {
		w.onAppend(written)
	}
	return nil
}

// syncAfterAppendLocked applies the configured sync policy after an
// Append of n bytes: SyncImmediate syncs every call, SyncBatch
// accumulates bytes and syncs once syncBytes have built up, and
// SyncNone never syncs automatically (the caller, or eventual OS
// writeback, is responsible). Close always syncs regardless of mode.
func (w *WAL) syncAfterAppendLocked(n int64) error {
	switch w.syncMode {
	case config.SyncImmediate:
		return w.syncLocked()
	case config.SyncBatch:
		w.bytesSinceSync += n
		if w.syncBytes > 0 && w.bytesSinceSync >= w.syncBytes {
			return w.syncLocked()
		}
		return nil
	default: // config.SyncNone
		return nil
	}
}

func (w *WAL) appendRecordLocked(r walrecord.Record) error {
	spaceInLast := int64(w.blockSize) - (w.fileLen % int64(w.blockSize))
	size := int64(r.Size())

	if size > spaceInLast {
		if err := w.writeZeros(spaceInLast); err != nil {
			return err
		}
	}

	buf := make([]byte, r.Size())
	if err := r.Encode(buf); err != nil {
		return fmt.Errorf("wal: encode record: %w", err)
	}
	if _, err := w.writer.Write(buf); err != nil {
		return fmt.Errorf("wal: write record: %w", err)
	}
	w.fileLen += int64(len(buf))
	return nil
}

func (w *WAL) writeZeros(n int64) error {
	if n <= 0 {
		return nil
	}
	zeros := make([]byte, n)
	if _, err := w.writer.Write(zeros); err != nil {
		return fmt.Errorf("wal: write padding: %w", err)
	}
	w.fileLen += n
	return nil
}

// Sync is the durability barrier: it flushes the buffered writer and
// fsyncs the underlying file.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *WAL) syncLocked() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("wal: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: fsync: %w", err)
	}
	w.bytesSinceSync = 0
	return nil
}

// Close flushes, syncs, and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if err := w.syncLocked(); err != nil {
		return err
	}
	w.closed = true
	return w.file.Close()
}

// Size returns the current file length in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileLen
}

// ReadBlock reads and decodes the block at the given zero-based block
// index, returning the records found before padding (or a decode
// failure) is reached. It is the collaborator for a future end-to-end
// replay driver; this package does not itself drive replay (spec.md §9).
func (w *WAL) ReadBlock(index int) ([]walrecord.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.syncLocked(); err != nil {
		return nil, err
	}

	block := make([]byte, w.blockSize)
	offset := int64(index) * int64(w.blockSize)
	n, err := w.file.ReadAt(block, offset)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("wal: read block %d: %w", index, err)
	}

	records, err := walrecord.DecodeBlock(block[:n])
	if err != nil {
		w.logger.Warn("block %d: %v", index, err)
		return records, err
	}
	return records, nil
}
