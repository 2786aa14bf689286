package dialog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Registry maps dialog names to their definitions so persisted dialogs can be restored.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{
		defs: make(map[string]*Definition),
	}
	for _, def := range defs {
		r.Register(def)
	}
	return r
}

// Register adds a definition to the registry.
// If a definition with the same name exists, it is overwritten.
func (r *Registry) Register(def *Definition) {
	if def == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names lists the registered definitions, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is the persisted form of a Dialog. Steps, handlers and the transport are not
// part of it; they come back from the Definition and the caller.
type Snapshot struct {
	Dialog string  `json:"dialog"`
	ChatID int64   `json:"chat_id"`
	UserID *int64  `json:"user_id"`
	Next   int     `json:"next"`
	Memory *Memory `json:"memory"`
	JumpTo *int    `json:"jump_to"`
}

// Snapshot captures the persisted state of the dialog.
func (d *Dialog) Snapshot() Snapshot {
	return Snapshot{
		Dialog: d.def.Name,
		ChatID: d.chatID,
		UserID: d.userID,
		Next:   d.next,
		Memory: d.memory,
		JumpTo: d.jumpTo,
	}
}

// MarshalJSON encodes the dialog snapshot.
func (d *Dialog) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

// DecodeSnapshot parses a persisted dialog without resolving its definition.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode dialog snapshot: %w", err)
	}
	if s.Memory == nil {
		s.Memory = NewMemory()
	}
	return s, nil
}

// Restore rebuilds a dialog from its persisted form.
func (r *Registry) Restore(data []byte, opts ...Option) (*Dialog, error) {
	s, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}

	def, ok := r.Lookup(s.Dialog)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDialog, s.Dialog)
	}

	d := New(def, s.ChatID, opts...)
	d.userID = s.UserID
	d.next = s.Next
	d.jumpTo = s.JumpTo
	d.memory = s.Memory
	return d, nil
}
