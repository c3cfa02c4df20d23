package flash

import (
	"sync"
	"time"
)

// Registry keeps one Board per visitor so a signup result is only ever shown
// to the client that submitted it. A board is dropped once its message is
// dismissed; only visitors with a visible message hold an entry.
type Registry struct {
	mu        sync.Mutex
	ttl       time.Duration
	afterFunc AfterFunc
	boards    map[string]*Board
}

// NewRegistry creates an empty registry whose boards use ttl.
// PRE: ttl > 0; a non-positive ttl falls back to DefaultTTL
// POST: Len() is 0
func NewRegistry(ttl time.Duration) *Registry {
	return NewRegistryWithTimer(ttl, realAfterFunc)
}

// NewRegistryWithTimer lets tests drive dismissal by hand.
func NewRegistryWithTimer(ttl time.Duration, afterFunc AfterFunc) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{ttl: ttl, afterFunc: afterFunc, boards: make(map[string]*Board)}
}

// Show posts a message to one visitor's board.
// PRE: visitor is non-empty
// POST: the visitor's message is visible; other visitors are untouched
func (r *Registry) Show(visitor, text string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.boards[visitor]
	if !ok {
		b = NewBoardWithTimer(r.ttl, r.afterFunc)
		b.onDismiss = func() { r.release(visitor, b) }
		r.boards[visitor] = b
	}
	b.Show(text, kind)
}

// Current returns the visitor's message region state.
// A visitor without a board sees the idle region.
func (r *Registry) Current(visitor string) Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.boards[visitor]; ok {
		return b.Current()
	}
	return Message{}
}

// release drops a dismissed board unless a Show revived it in the meantime.
func (r *Registry) release(visitor string, b *Board) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.boards[visitor] == b && !b.Current().Visible {
		delete(r.boards, visitor)
	}
}

// Len returns how many visitors currently hold a board.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Visitor binds the registry to one visitor id.
func (r *Registry) Visitor(id string) Visitor {
	return Visitor{registry: r, id: id}
}

// Visitor is one visitor's message region.
type Visitor struct {
	registry *Registry
	id       string
}

// Success shows a success message to this visitor.
func (v Visitor) Success(text string) {
	v.registry.Show(v.id, text, KindSuccess)
}

// Error shows an error message to this visitor.
func (v Visitor) Error(text string) {
	v.registry.Show(v.id, text, KindError)
}

// Current returns this visitor's message region state.
func (v Visitor) Current() Message {
	return v.registry.Current(v.id)
}
