package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	errs "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/protocol"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Coordinator accepts inbound chat messages, applies the authentication
// and rate-limit gates, and fans accepted messages out to every
// authenticated session in the registry.
//
// Acceptance (gate checks, history append, enqueue loop) is serialized
// through a single mutex. Only per-sender ordering is promised to
// clients, but serializing acceptance makes the broadcast stream a total
// order by acceptance time, matching what the shared history replays.
// Fan-out itself never blocks: delivery to each recipient is a
// non-blocking enqueue on its outbound buffer, so one slow socket cannot
// stall the others.
type Coordinator struct {
	log      *slog.Logger
	registry contract.IRegistry
	limiter  *RateLimiter
	history  *History

	// moderator is optional; nil disables the censor pass.
	moderator *moderation.Moderator

	// dedup silently drops a message whose (identity, content) pair is
	// already in history. Off by default; see DESIGN.md.
	dedup bool

	mu sync.Mutex
}

func NewCoordinator(
	log *slog.Logger,
	registry contract.IRegistry,
	limiter *RateLimiter,
	history *History,
	moderator *moderation.Moderator,
	dedup bool,
) *Coordinator {
	return &Coordinator{
		log:       log,
		registry:  registry,
		limiter:   limiter,
		history:   history,
		moderator: moderator,
		dedup:     dedup,
	}
}

// Submit runs one message through the gates and, if accepted, delivers it
// to every authenticated session visible in a single registry snapshot.
// The returned error is one of the sentinel gate errors; the session
// layer maps it to a structured frame for the sender only.
func (c *Coordinator) Submit(session contract.Session, content string) error {
	if !session.Authenticated() {
		return errs.ErrNotAuthenticated
	}
	identity := session.Identity()

	if !c.limiter.TryAccept(identity, time.Now()) {
		return errs.ErrRateLimited
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dedup && c.history.Contains(identity, content) {
		c.log.Debug("Dropping duplicate message", "identity", identity)
		return nil
	}

	if c.moderator != nil {
		censored, masked := c.moderator.Censor(content)
		if masked {
			info := whatlanggo.Detect(content)
			c.log.Warn("Censored message content",
				"identity", identity,
				"lang", info.Lang.Iso6391())
			content = censored
		}
	}

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   identity,
		Content:    content,
		AcceptedAt: time.Now().UTC(),
	}
	c.history.Append(message)

	frame, err := json.Marshal(protocol.NewMessage(message.SenderID, message.Content))
	if err != nil {
		return err
	}

	c.registry.ForEachAuthenticated(func(recipient contract.Session) {
		if !recipient.Enqueue(frame) {
			// Outbound buffer full or session gone: drop this recipient
			// rather than stalling the broadcast. Teardown is idempotent.
			c.log.Warn("Recipient cannot keep up, disconnecting",
				"session_id", recipient.ID(),
				"identity", recipient.Identity())
			recipient.Teardown()
		}
	})

	return nil
}

// ReplayFrame encodes the current history as the frame sent once to each
// new connection, before authentication.
func (c *Coordinator) ReplayFrame() ([]byte, error) {
	entries := lo.Map(c.history.Snapshot(), func(m domain.Message, _ int) protocol.HistoryEntry {
		return protocol.HistoryEntry{Username: m.SenderID, Message: m.Content}
	})
	return json.Marshal(protocol.NewHistory(entries))
}
