// Package view tracks what the human user currently has open in the
// business application and pushes refresh/navigate signals back to it over
// WebSocket. The tracked context is a hint for the record tools: it may lag
// behind the real UI or be absent entirely, and nothing depends on it for
// correctness.
package view

import "sync"

// Kind classifies the active view
type Kind int

const (
	// KindNone means no view information is available
	KindNone Kind = iota
	// KindList is a list-style view over many records
	KindList
	// KindDetail is a single-record view
	KindDetail
)

// String returns the string representation of the view kind
func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindDetail:
		return "detail"
	default:
		return "none"
	}
}

// ParseKind parses the wire form used in inbound UI messages
func ParseKind(s string) Kind {
	switch s {
	case "list":
		return KindList
	case "detail":
		return KindDetail
	default:
		return KindNone
	}
}

// Context describes the view the user currently has open. RecordID and
// RecordLabel are set only for single-record views.
type Context struct {
	Entity      string
	Kind        Kind
	RecordID    string
	RecordLabel string
}

// Tracker holds the most recently reported view context. Safe for
// concurrent use; readers never block writers for long.
type Tracker struct {
	mu      sync.RWMutex
	current Context
	known   bool
}

// NewTracker returns a tracker with no recorded view
func NewTracker() *Tracker {
	return &Tracker{}
}

// Set records the active view
func (t *Tracker) Set(ctx Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = ctx
	t.known = true
}

// Clear forgets the active view, for example when the user closes it
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Context{}
	t.known = false
}

// Current returns the last reported view and whether one is known
func (t *Tracker) Current() (Context, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.known
}
