package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// WhitelistEntry is one ability exempt from buff catalog filtering.
type WhitelistEntry struct {
	ID      string `yaml:"id"`
	Comment string `yaml:"comment"`
}

// Whitelist is the allow-list of ability identifiers, cached as a set.
type Whitelist struct {
	Entries []WhitelistEntry `yaml:"entries"`

	ids map[string]struct{}
}

// NewWhitelist builds a whitelist from identifiers.
func NewWhitelist(ids ...string) *Whitelist {
	w := &Whitelist{}
	for _, id := range ids {
		w.Entries = append(w.Entries, WhitelistEntry{ID: id})
	}
	w.index()
	return w
}

// LoadWhitelist reads the whitelist file.
// A missing file yields an empty whitelist.
func LoadWhitelist(path string) (*Whitelist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("whitelist not found, no abilities whitelisted", "path", path)
			return NewWhitelist(), nil
		}
		return NewWhitelist(), fmt.Errorf("reading whitelist %s: %w", path, err)
	}

	w := &Whitelist{}
	if err := yaml.Unmarshal(data, w); err != nil {
		return NewWhitelist(), fmt.Errorf("parsing whitelist %s: %w", path, err)
	}
	w.index()

	slog.Info("whitelisted abilities loaded", "count", len(w.ids), "path", path)
	return w, nil
}

func (w *Whitelist) index() {
	w.ids = make(map[string]struct{}, len(w.Entries))
	for _, e := range w.Entries {
		if e.ID != "" {
			w.ids[e.ID] = struct{}{}
		}
	}
}

// Contains reports whether id is whitelisted.
func (w *Whitelist) Contains(id string) bool {
	if w == nil {
		return false
	}
	_, ok := w.ids[id]
	return ok
}

// Len returns the number of distinct identifiers.
func (w *Whitelist) Len() int {
	if w == nil {
		return 0
	}
	return len(w.ids)
}
