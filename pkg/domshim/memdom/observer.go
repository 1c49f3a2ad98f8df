package memdom

import (
	"sync"

	"github.com/tombee/waitcore/pkg/domshim"
)

// observer is the in-memory domshim.MutationObserver. It delivers batches
// synchronously on the same goroutine that caused the mutation, mirroring
// the real MutationObserver's microtask-batched callback closely enough
// for deterministic tests (the idle gate itself does the actual debounce
// accounting; this fake only needs to deliver records).
type observer struct {
	mu       sync.Mutex
	doc      *Document
	target   *Node
	config   domshim.ObserveConfig
	callback func([]domshim.Mutation)
	pending  []domshim.Mutation
}

// NewMutationObserverFactory returns a domshim.MutationObserverFactory
// bound to doc, for embedders that want the in-memory mutation-observer
// capability (as opposed to the timer-only fallback in §4.2's edge case).
func NewMutationObserverFactory(doc *Document) domshim.MutationObserverFactory {
	return func(callback func([]domshim.Mutation)) domshim.MutationObserver {
		return &observer{doc: doc, callback: callback}
	}
}

func (o *observer) Observe(target domshim.Node, config domshim.ObserveConfig) {
	o.mu.Lock()
	o.target = asNode(target)
	o.config = config
	o.mu.Unlock()
	if o.doc != nil {
		o.doc.addObserver(o)
	}
}

func (o *observer) Disconnect() {
	if o.doc != nil {
		o.doc.removeObserver(o)
	}
}

func (o *observer) TakeRecords() []domshim.Mutation {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.pending
	o.pending = nil
	return out
}

// covers reports whether this observer's configuration matches the given
// mutation on the given target, per standard MutationObserverInit
// semantics: direct match, or an ancestor match when Subtree is set.
func (o *observer) covers(target *Node, m domshim.Mutation) bool {
	o.mu.Lock()
	watched, cfg := o.target, o.config
	o.mu.Unlock()

	if !kindEnabled(cfg, m.Kind) {
		return false
	}
	if watched == nil {
		return false
	}
	if watched == target {
		return true
	}
	if !cfg.Subtree {
		return false
	}
	for p := target.parent; p != nil; p = p.parent {
		if p == watched {
			return true
		}
	}
	return false
}

func kindEnabled(cfg domshim.ObserveConfig, kind domshim.MutationKind) bool {
	switch kind {
	case domshim.MutationAttributes:
		return cfg.Attributes
	case domshim.MutationChildList:
		return cfg.ChildList
	case domshim.MutationCharacterData:
		return cfg.CharacterData
	default:
		return false
	}
}

func (o *observer) enqueue(m domshim.Mutation) {
	o.mu.Lock()
	cb := o.callback
	o.pending = append(o.pending, m)
	batch := o.pending
	o.pending = nil
	o.mu.Unlock()
	if cb != nil {
		cb(batch)
	}
}
