// Package session holds the client-side view of one open conversation: the
// optimistic message list a tab renders while its durable writes and realtime
// events race each other. Frontends embedding the Go client (and the e2e
// harness) drive it; the server never does.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	chat "freelancehub/internal/pkg/chat/application/domain"
)

// ErrUnknownMessage is returned when an ack or rollback names a temp id that
// is no longer tracked.
var ErrUnknownMessage = errors.New("session: unknown message id")

const defaultTypingTTL = 3 * time.Second

// Entry is one rendered message. Pending entries carry a client-assigned
// temporary id and flip to the authoritative message on the durable ack.
type Entry struct {
	chat.Message
	Pending bool
}

// View reconciles optimistic local state with server responses for a single
// conversation. Display order follows the durable timestamps, never relay
// arrival order. Safe for concurrent use.
type View struct {
	mu        sync.Mutex
	entries   []Entry
	ids       map[string]struct{}
	typing    map[string]time.Time // userID -> indicator expiry
	typingTTL time.Duration
	now       func() time.Time
}

type Option func(*View)

// WithTypingTTL overrides how long a typing indicator stays visible without
// a refresh.
func WithTypingTTL(ttl time.Duration) Option {
	return func(v *View) { v.typingTTL = ttl }
}

// WithClock injects the time source. Tests use this to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(v *View) { v.now = now }
}

func NewView(opts ...Option) *View {
	v := &View{
		ids:       make(map[string]struct{}),
		typing:    make(map[string]time.Time),
		typingTTL: defaultTypingTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load seeds the view from a durable fetch. Messages already present (for
// example from relay events that arrived before the fetch returned) are
// skipped.
func (v *View) Load(messages []chat.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range messages {
		v.insertLocked(Entry{Message: m})
	}
}

// SendOptimistic renders a message immediately under a temporary id while the
// durable POST is in flight. The caller generates tempID and must later call
// Confirm or Rollback with it.
func (v *View) SendOptimistic(tempID, senderID, content string, attachments []chat.Attachment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.insertLocked(Entry{
		Message: chat.Message{
			ID:          tempID,
			SenderID:    senderID,
			Content:     content,
			Attachments: attachments,
			CreatedAt:   v.now().UTC(),
		},
		Pending: true,
	})
}

// Confirm replaces the optimistic entry with the server's authoritative copy,
// adopting its id and timestamp. If the temp id is gone but the authoritative
// id is already present (a relay echo landed first), the call is a no-op.
func (v *View) Confirm(tempID string, authoritative chat.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, ok := v.indexLocked(tempID)
	if !ok {
		if _, dup := v.ids[authoritative.ID]; dup {
			return nil
		}
		return ErrUnknownMessage
	}

	delete(v.ids, tempID)
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	v.insertLocked(Entry{Message: authoritative})
	return nil
}

// Rollback removes an optimistic entry after its durable POST failed. A
// temporary message must never outlive a failed send.
func (v *View) Rollback(tempID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	i, ok := v.indexLocked(tempID)
	if !ok || !v.entries[i].Pending {
		return ErrUnknownMessage
	}
	delete(v.ids, tempID)
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	return nil
}

// Receive appends a relayed or fanned-out message. Returns false when a
// message with that id is already rendered, which covers both duplicate relay
// frames and the durable fetch racing the relay.
func (v *View) Receive(m chat.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.insertLocked(Entry{Message: m})
}

// MarkRead flips the read flag on one message, typically driven by a
// message-read relay.
func (v *View) MarkRead(messageID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i, ok := v.indexLocked(messageID); ok {
		v.entries[i].Read = true
	}
}

// MarkDelivered flips the delivered flag on one message.
func (v *View) MarkDelivered(messageID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i, ok := v.indexLocked(messageID); ok {
		v.entries[i].Delivered = true
	}
}

// Remove drops a deleted message from the view.
func (v *View) Remove(messageID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i, ok := v.indexLocked(messageID); ok {
		delete(v.ids, messageID)
		v.entries = append(v.entries[:i], v.entries[i+1:]...)
	}
}

// Messages returns the rendered list in display order.
func (v *View) Messages() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// SetTyping records that a user is typing. The indicator self-expires after
// the TTL; repeated events refresh it.
func (v *View) SetTyping(userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing[userID] = v.now().Add(v.typingTTL)
}

// ClearTyping drops a user's indicator immediately (stop-typing event).
func (v *View) ClearTyping(userID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.typing, userID)
}

// TypingUsers returns users whose indicator has not expired, sorted for
// stable rendering.
func (v *View) TypingUsers() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	out := make([]string, 0, len(v.typing))
	for id, expiry := range v.typing {
		if now.After(expiry) {
			delete(v.typing, id)
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// insertLocked places the entry by timestamp, keeping arrival order for equal
// timestamps. Returns false on a duplicate id.
func (v *View) insertLocked(e Entry) bool {
	if _, ok := v.ids[e.ID]; ok {
		return false
	}
	v.ids[e.ID] = struct{}{}

	i := sort.Search(len(v.entries), func(i int) bool {
		return v.entries[i].CreatedAt.After(e.CreatedAt)
	})
	v.entries = append(v.entries, Entry{})
	copy(v.entries[i+1:], v.entries[i:])
	v.entries[i] = e
	return true
}

func (v *View) indexLocked(messageID string) (int, bool) {
	for i := range v.entries {
		if v.entries[i].ID == messageID {
			return i, true
		}
	}
	return 0, false
}
