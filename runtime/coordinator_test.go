package runtime

import (
	errs "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/protocol"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, dedup bool, moderator *moderation.Moderator) (*Coordinator, *Registry) {
	t.Helper()
	registry := NewRegistry()
	coordinator := NewCoordinator(
		slog.Default(),
		registry,
		NewRateLimiter(time.Second),
		NewHistory(100),
		moderator,
		dedup,
	)
	return coordinator, registry
}

func decodeMessageFrame(t *testing.T, raw []byte) protocol.Message {
	t.Helper()
	var frame protocol.Message
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestCoordinator_RejectsUnauthenticatedSender(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	sender := newFakeSession("", false)
	recipient := newFakeSession("alice", true)
	registry.Add(sender)
	registry.Add(recipient)

	err := coordinator.Submit(sender, "hi")

	req.ErrorIs(err, errs.ErrNotAuthenticated)
	req.Empty(recipient.received(), "nothing may be broadcast before authentication")
}

func TestCoordinator_FansOutToAllAuthenticatedIncludingSender(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	sender := newFakeSession("bob", true)
	alice := newFakeSession("alice", true)
	pending := newFakeSession("", false)
	registry.Add(sender)
	registry.Add(alice)
	registry.Add(pending)

	req.NoError(coordinator.Submit(sender, "hello"))

	for _, recipient := range []*fakeSession{sender, alice} {
		frames := recipient.received()
		req.Len(frames, 1, "exactly one frame per recipient per accepted message")

		frame := decodeMessageFrame(t, frames[0])
		req.Equal(protocol.TypeMessage, frame.Type)
		req.Equal("bob", frame.Username)
		req.Equal("hello", frame.Message)
	}
	req.Empty(pending.received())
}

func TestCoordinator_RateLimitsPerIdentity(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	sender := newFakeSession("alice", true)
	registry.Add(sender)

	req.NoError(coordinator.Submit(sender, "one"))
	err := coordinator.Submit(sender, "two")

	req.ErrorIs(err, errs.ErrRateLimited)
	req.Len(sender.received(), 1, "rejected message must not be broadcast")
}

func TestCoordinator_SlowRecipientIsIsolated(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	sender := newFakeSession("bob", true)
	blocked := newFakeSession("alice", true)
	blocked.full = true
	healthy := newFakeSession("carol", true)
	registry.Add(sender)
	registry.Add(blocked)
	registry.Add(healthy)

	req.NoError(coordinator.Submit(sender, "hello"))

	// The blocked recipient is torn down, everyone else is delivered.
	req.True(blocked.wasTornDown())
	req.Len(healthy.received(), 1)
	req.Len(sender.received(), 1)
}

func TestCoordinator_DedupPolicy(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, true, nil)

	sender := newFakeSession("alice", true)
	registry.Add(sender)

	req.NoError(coordinator.Submit(sender, "hello"))

	// Outside the rate window but identical content: silently dropped.
	time.Sleep(1100 * time.Millisecond)
	req.NoError(coordinator.Submit(sender, "hello"))
	req.Len(sender.received(), 1)

	// Different content still goes through.
	time.Sleep(1100 * time.Millisecond)
	req.NoError(coordinator.Submit(sender, "hello again"))
	req.Len(sender.received(), 2)
}

func TestCoordinator_DedupOffByDefaultAllowsRepeats(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	sender := newFakeSession("alice", true)
	registry.Add(sender)

	req.NoError(coordinator.Submit(sender, "hello"))
	time.Sleep(1100 * time.Millisecond)
	req.NoError(coordinator.Submit(sender, "hello"))
	req.Len(sender.received(), 2, "a user may legitimately repeat a phrase")
}

func TestCoordinator_CensorPass(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)
	coordinator, registry := newTestCoordinator(t, false, &moderator)

	sender := newFakeSession("alice", true)
	registry.Add(sender)

	req.NoError(coordinator.Submit(sender, "look, a badger"))

	frame := decodeMessageFrame(t, sender.received()[0])
	req.Equal("look, a ******", frame.Message)
}

func TestCoordinator_ReplayFrame(t *testing.T) {
	req := require.New(t)
	coordinator, registry := newTestCoordinator(t, false, nil)

	// Empty history still yields a well-formed frame with an empty list
	raw, err := coordinator.ReplayFrame()
	req.NoError(err)
	req.JSONEq(`{"type":"history","messages":[]}`, string(raw))

	sender := newFakeSession("bob", true)
	registry.Add(sender)
	req.NoError(coordinator.Submit(sender, "hello"))

	raw, err = coordinator.ReplayFrame()
	req.NoError(err)

	var frame protocol.History
	req.NoError(json.Unmarshal(raw, &frame))
	req.Equal(protocol.TypeHistory, frame.Type)
	req.Equal([]protocol.HistoryEntry{{Username: "bob", Message: "hello"}}, frame.Messages)
}
