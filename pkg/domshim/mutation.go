package domshim

// MutationKind mirrors the MutationRecord.type values the idle gate cares
// about.
type MutationKind string

const (
	MutationAttributes    MutationKind = "attributes"
	MutationChildList     MutationKind = "childList"
	MutationCharacterData MutationKind = "characterData"
)

// Mutation is the Go analogue of a MutationRecord, trimmed to the fields
// the idle gate's statistics collection (§4.2) actually consumes.
type Mutation struct {
	Kind          MutationKind
	AttributeName string // only set for MutationAttributes
	TargetTag     string
	TargetID      string
}

// ObserveConfig mirrors MutationObserverInit. The default the idle gate
// passes (spec.md §4.2) watches attributes|childList|characterData|subtree.
type ObserveConfig struct {
	Attributes     bool
	ChildList      bool
	CharacterData  bool
	Subtree        bool
}

// DefaultObserveConfig returns the idle gate's default observe
// configuration.
func DefaultObserveConfig() ObserveConfig {
	return ObserveConfig{
		Attributes:    true,
		ChildList:     true,
		CharacterData: true,
		Subtree:       true,
	}
}

// MutationObserver is the Go analogue of the MutationObserver constructor
// result: Observe/Disconnect/TakeRecords, callback-driven.
type MutationObserver interface {
	// Observe starts observing target under config. A nil target when
	// the embedder lacks a mutation-observer capability is a supported
	// no-op (the idle gate falls back to timer-only behavior, per
	// spec.md §4.2's edge case).
	Observe(target Node, config ObserveConfig)
	// Disconnect stops observing and releases any held resources.
	Disconnect()
	// TakeRecords drains and returns any queued-but-undelivered records.
	TakeRecords() []Mutation
}

// MutationObserverFactory constructs a MutationObserver bound to a
// callback invoked with each batch of mutations. Production embedders
// implement this against their real observer API; pkg/domshim/memdom
// supplies an in-memory one for tests and the bundled demo CLI.
type MutationObserverFactory func(callback func([]Mutation)) MutationObserver

// Capable reports whether factory represents a real mutation-observer
// capability, vs. the nil value used by embedders that only support
// timer-based idle detection (spec.md §4.2's "platform lacks a mutation
// observer" edge case).
func (f MutationObserverFactory) Capable() bool {
	return f != nil
}
