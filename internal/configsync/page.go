// Package configsync keeps the chat integration page's local snapshot and
// forwards every edit to the owner of the persisted configuration.
package configsync

import (
	"errors"
	"fmt"
	"sync"

	"github.com/justdancerequests/overlay/internal/configtree"
	"github.com/justdancerequests/overlay/internal/streamer"
)

// ErrInvalidTree is returned when an edited tree no longer decodes into the
// chat integration shape.
var ErrInvalidTree = errors.New("invalid chat integration tree")

// UpdateFunc receives each edit. The page never waits on it or inspects a
// result; the owner handles persistence and its failures.
type UpdateFunc func(streamer.Partial)

// Page owns the chat integration snapshot. Edits are serialized.
type Page struct {
	mu       sync.Mutex
	snapshot configtree.Tree
	update   UpdateFunc
}

// NewPage starts a page from the initial configuration.
func NewPage(initial streamer.ChatIntegration, update UpdateFunc) *Page {
	if update == nil {
		update = func(streamer.Partial) {}
	}
	return &Page{
		snapshot: initial.Tree(),
		update:   update,
	}
}

// Snapshot returns the current tree. Callers must not modify it.
func (p *Page) Snapshot() configtree.Tree {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Configuration returns the current settings in typed form.
func (p *Page) Configuration() streamer.ChatIntegration {
	cfg, _ := streamer.FromTree(p.Snapshot())
	return cfg
}

// ToggleEnabled flips the "enabled" flag of the record at path.
// An empty path addresses the chat integration itself.
func (p *Page) ToggleEnabled(path string) (streamer.ChatIntegration, error) {
	return p.edit(func(t configtree.Tree) configtree.Tree {
		return configtree.Toggle(t, configtree.Resolve(path, "enabled"))
	})
}

// SetBanlistFormat replaces the banlist reply format, keeping its toggle.
func (p *Page) SetBanlistFormat(format string) (streamer.ChatIntegration, error) {
	return p.edit(func(t configtree.Tree) configtree.Tree {
		return configtree.SetText(t, configtree.Resolve(streamer.BanlistFormatPath, ""), format)
	})
}

// SubmitEdit replaces the snapshot with next and forwards it to the owner.
func (p *Page) SubmitEdit(next configtree.Tree) (streamer.ChatIntegration, error) {
	return p.edit(func(configtree.Tree) configtree.Tree { return next })
}

func (p *Page) edit(fn func(configtree.Tree) configtree.Tree) (streamer.ChatIntegration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := fn(p.snapshot)
	cfg, err := streamer.FromTree(next)
	if err != nil {
		return streamer.ChatIntegration{}, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}

	p.update(streamer.Partial{ChatIntegration: &cfg})
	p.snapshot = next
	return cfg, nil
}
