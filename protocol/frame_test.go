package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr bool
	}{
		{"Auth frame", `{"type":"auth","token":"abc"}`, Inbound{Type: TypeAuth, Token: "abc"}, false},
		{"Message frame", `{"type":"message","message":"hello"}`, Inbound{Type: TypeMessage, Message: "hello"}, false},
		{"Unknown type is kept for the caller", `{"type":"presence"}`, Inbound{Type: "presence"}, false},
		{"Not JSON", `hello world`, Inbound{}, true},
		{"Truncated JSON", `{"type":"auth"`, Inbound{}, true},
		{"Missing type", `{"message":"hello"}`, Inbound{}, true},
		{"Wrong field type", `{"type":"auth","token":42}`, Inbound{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			frame, err := DecodeInbound([]byte(tt.raw))
			if tt.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, frame)
		})
	}
}

func TestOutboundFrameShapes(t *testing.T) {
	req := require.New(t)

	raw, err := json.Marshal(NewMessage("bob", "hello"))
	req.NoError(err)
	req.JSONEq(`{"type":"message","username":"bob","message":"hello"}`, string(raw))

	raw, err = json.Marshal(NewAuthSuccess("bob"))
	req.NoError(err)
	req.JSONEq(`{"type":"auth_success","username":"bob"}`, string(raw))

	raw, err = json.Marshal(NewHistory([]HistoryEntry{{Username: "bob", Message: "hi"}}))
	req.NoError(err)
	req.JSONEq(`{"type":"history","messages":[{"username":"bob","message":"hi"}]}`, string(raw))

	// An empty replay still serializes with an explicit empty list so
	// clients can rely on the field being present.
	raw, err = json.Marshal(NewHistory([]HistoryEntry{}))
	req.NoError(err)
	req.JSONEq(`{"type":"history","messages":[]}`, string(raw))
}
