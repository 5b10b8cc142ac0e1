package runtime

import (
	"chat-relay/domain"
	"sync"
)

// History is the bounded in-memory list of accepted messages, replayed
// best-effort to newly connecting sessions in acceptance order. It does
// not survive a restart; cross-restart ordering is explicitly out of
// scope for this service.
type History struct {
	mu       sync.RWMutex
	limit    int
	messages []domain.Message
}

// NewHistory keeps the most recent limit messages. A non-positive limit
// means unbounded.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Append(message domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, message)
	if h.limit > 0 && len(h.messages) > h.limit {
		// Drop the oldest entry. Copy instead of reslicing so the
		// backing array does not pin evicted messages forever.
		copy(h.messages, h.messages[1:])
		h.messages = h.messages[:len(h.messages)-1]
	}
}

func (h *History) Snapshot() []domain.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make([]domain.Message, len(h.messages))
	copy(snapshot, h.messages)
	return snapshot
}

// Contains reports whether an identical (sender, content) pair is already
// present. Used only by the optional deduplication policy.
func (h *History) Contains(senderID, content string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, message := range h.messages {
		if message.SenderID == senderID && message.Content == content {
			return true
		}
	}
	return false
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
