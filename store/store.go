package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/traicing/traicing/monitoring"
)

var (
	// ErrEmptyPath is returned by New when no log file path is given.
	ErrEmptyPath = errors.New("store: empty log file path")

	// ErrClosed is returned by Append after Close.
	ErrClosed = errors.New("store: closed")
)

// Store is an append-only JSON Lines sink for finalized span records.
//
// Append is safe for concurrent use: a mutex covers the write (and optional
// sync) so records from different goroutines never interleave. Independent
// stores hold independent locks.
type Store struct {
	path      string
	autoFlush bool
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu     sync.Mutex
	file   *os.File // opened lazily on first append
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithAutoFlush controls whether each append is synced to disk before
// returning. Defaults to true.
func WithAutoFlush(v bool) Option {
	return func(s *Store) { s.autoFlush = v }
}

// WithLogger sets the logger for store diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires a metrics collector into the store.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a store writing to path. The parent directory is created
// before the first write, not here, so constructing a store never touches
// the filesystem.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	s := &Store{
		path:      path,
		autoFlush: true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the log file path.
func (s *Store) Path() string {
	return s.path
}

// Append serializes v and writes it as one newline-terminated line.
func (s *Store) Append(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.file == nil {
		if err := s.open(); err != nil {
			s.metrics.ObserveWrite(err)
			return err
		}
	}

	if _, err := s.file.Write(data); err != nil {
		s.metrics.ObserveWrite(err)
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}

	if s.autoFlush {
		if err := s.file.Sync(); err != nil {
			s.metrics.ObserveWrite(err)
			return fmt.Errorf("store: sync %s: %w", s.path, err)
		}
	}

	s.metrics.ObserveWrite(nil)
	return nil
}

// open prepares the sink for the first write. Caller holds s.mu.
func (s *Store) open() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create log directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", s.path, err)
	}
	s.file = f

	s.logger.Debug("trace log opened",
		zap.String("path", s.path),
		zap.Bool("auto_flush", s.autoFlush),
	)
	return nil
}

// Close closes the underlying file. Subsequent appends fail with ErrClosed.
// Closing a store that never wrote is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", s.path, err)
	}
	return nil
}
