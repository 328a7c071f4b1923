package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store holds the current buffer config and reloads it on demand.
// Readers always see a complete config; Reload swaps it atomically.
type Store struct {
	path    string
	current atomic.Pointer[Buffer]

	mu       sync.Mutex
	onReload []func(*Buffer)

	whitelistOnce sync.Once
	whitelist     *Whitelist
}

// NewStore loads config from path. A missing file is created with defaults
// so it can be edited in place.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	exists, err := fileExists(path)
	if err != nil {
		return nil, fmt.Errorf("checking config %s: %w", path, err)
	}
	if !exists {
		cfg := DefaultBuffer()
		if err := SaveBuffer(path, cfg); err != nil {
			return nil, err
		}
		slog.Info("created default config", "path", path)
		s.current.Store(&cfg)
		return s, nil
	}

	cfg, err := LoadBuffer(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(&cfg)
	return s, nil
}

// NewStaticStore wraps cfg without a backing file. Reload is a no-op.
func NewStaticStore(cfg Buffer) *Store {
	s := &Store{}
	s.current.Store(&cfg)
	return s
}

// Path returns the backing file path ("" for static stores).
func (s *Store) Path() string {
	return s.path
}

// Current returns the active config. The returned value must not be modified.
func (s *Store) Current() *Buffer {
	return s.current.Load()
}

// SpamConfig returns the active spam section.
func (s *Store) SpamConfig() Spam {
	return s.Current().Spam
}

// OnReload registers fn to run after every successful reload.
func (s *Store) OnReload(fn func(*Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload re-reads the config file. On error the previous config stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}

	cfg, err := LoadBuffer(s.path)
	if err != nil {
		return err
	}
	s.current.Store(&cfg)

	slog.Info("config reloaded",
		"path", s.path,
		"smart_reapply", cfg.Spam.UseSmartReapply,
		"reapply_threshold", cfg.Spam.ReapplyThreshold(),
		"check_interval", cfg.Spam.CheckInterval())

	s.mu.Lock()
	hooks := append([]func(*Buffer){}, s.onReload...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(&cfg)
	}
	return nil
}

// Whitelist returns the ability whitelist, loading it on first use.
// The set is cached for the life of the store.
func (s *Store) Whitelist() *Whitelist {
	s.whitelistOnce.Do(func() {
		path := s.Current().WhitelistPath
		if path == "" {
			s.whitelist = NewWhitelist()
			return
		}
		w, err := LoadWhitelist(path)
		if err != nil {
			slog.Error("failed to load whitelist", "path", path, "error", err)
		}
		s.whitelist = w
	})
	return s.whitelist
}
