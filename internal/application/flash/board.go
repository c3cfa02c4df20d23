package flash

import (
	"sync"
	"time"
)

// DefaultTTL is how long a message stays visible.
const DefaultTTL = 3 * time.Second

// Kind selects the styling of a message.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is the state of the message region.
type Message struct {
	Text    string
	Kind    Kind
	Visible bool
}

// Timer is the part of *time.Timer the board needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Board is the message region: idle until Show, then showing until the TTL
// elapses. A later Show replaces the message and restarts the TTL.
type Board struct {
	mu         sync.Mutex
	ttl        time.Duration
	afterFunc  AfterFunc
	current    Message
	timer      Timer
	generation uint64
	onDismiss  func()
}

// NewBoard creates an idle board.
// PRE: ttl > 0; a non-positive ttl falls back to DefaultTTL
// POST: Current().Visible is false
func NewBoard(ttl time.Duration) *Board {
	return NewBoardWithTimer(ttl, realAfterFunc)
}

// NewBoardWithTimer lets tests drive dismissal by hand.
func NewBoardWithTimer(ttl time.Duration, afterFunc AfterFunc) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, afterFunc: afterFunc}
}

// Show makes text visible with the given kind.
// PRE: none
// POST: the message is visible; any earlier pending dismissal is cancelled
func (b *Board) Show(text string, kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	gen := b.generation
	b.current = Message{Text: text, Kind: kind, Visible: true}
	b.timer = b.afterFunc(b.ttl, func() { b.dismiss(gen) })
}

// Success shows a success message.
func (b *Board) Success(text string) {
	b.Show(text, KindSuccess)
}

// Error shows an error message.
func (b *Board) Error(text string) {
	b.Show(text, KindError)
}

// dismiss hides the message scheduled under gen. A timer that already fired
// before Stop could cancel it finds a newer generation and does nothing.
func (b *Board) dismiss(gen uint64) {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	b.current.Visible = false
	b.timer = nil
	onDismiss := b.onDismiss
	b.mu.Unlock()

	// called unlocked: the registry takes its own lock before reading the board
	if onDismiss != nil {
		onDismiss()
	}
}

// Current returns the message region state.
// Text and kind of a dismissed message are kept; only Visible changes.
func (b *Board) Current() Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// TTL returns the visibility window.
func (b *Board) TTL() time.Duration {
	return b.ttl
}
