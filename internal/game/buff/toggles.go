package buff

import (
	"sync"

	"github.com/udisondev/bubblebuff/internal/config"
	"github.com/udisondev/bubblebuff/internal/model"
)

// Toggles are the externally controlled switches of the buffer.
// Safe for concurrent use.
type Toggles struct {
	mu sync.RWMutex

	spam map[model.BuffGroup]bool
	auto map[model.BuffGroup]bool

	allowInCombat  bool
	verboseCasting bool
	overwriteBuff  bool
}

// NewToggles creates toggles with every switch off.
func NewToggles() *Toggles {
	return &Toggles{
		spam: make(map[model.BuffGroup]bool),
		auto: make(map[model.BuffGroup]bool),
	}
}

// NewTogglesFromConfig creates toggles initialised from cfg.
func NewTogglesFromConfig(cfg *config.Buffer) *Toggles {
	t := NewToggles()
	t.ApplyConfig(cfg)
	return t
}

// ApplyConfig replaces every switch with the values from cfg.
func (t *Toggles) ApplyConfig(cfg *config.Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.spam)
	clear(t.auto)
	for _, g := range cfg.SpamGroups {
		t.spam[g] = true
	}
	for _, g := range cfg.AutoTriggerGroups {
		t.auto[g] = true
	}
	t.allowInCombat = cfg.AllowInCombat
	t.verboseCasting = cfg.VerboseCasting
	t.overwriteBuff = cfg.OverwriteBuff
}

func (t *Toggles) SetSpam(g model.BuffGroup, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spam[g] = on
}

func (t *Toggles) IsSpamActive(g model.BuffGroup) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.spam[g]
}

func (t *Toggles) SetAutoTrigger(g model.BuffGroup, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.auto[g] = on
}

func (t *Toggles) IsAutoTriggerActive(g model.BuffGroup) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.auto[g]
}

func (t *Toggles) SetAllowInCombat(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowInCombat = on
}

func (t *Toggles) AllowInCombat() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowInCombat
}

func (t *Toggles) SetVerboseCasting(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.verboseCasting = on
}

func (t *Toggles) VerboseCasting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.verboseCasting
}

func (t *Toggles) SetOverwriteBuff(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overwriteBuff = on
}

func (t *Toggles) OverwriteBuff() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.overwriteBuff
}
