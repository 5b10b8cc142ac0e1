// Package protocol defines the JSON frames exchanged over a connection.
// One frame per WebSocket text message; liveness uses ping/pong control
// frames and never appears here.
package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	TypeAuth        = "auth"
	TypeMessage     = "message"
	TypeAuthSuccess = "auth_success"
	TypeAuthError   = "auth_error"
	TypeError       = "error"
	TypeHistory     = "history"
)

// Inbound is the union of all client-to-server frames.
// Unused fields stay empty depending on Type.
type Inbound struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeInbound parses a raw client frame.
// A frame without a type is treated as malformed, the policy for
// malformed frames (log and ignore) belongs to the caller.
func DecodeInbound(raw []byte) (Inbound, error) {
	var frame Inbound
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Inbound{}, fmt.Errorf("undecodable frame: %w", err)
	}
	if frame.Type == "" {
		return Inbound{}, fmt.Errorf("frame without type")
	}
	return frame, nil
}

type AuthSuccess struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type AuthError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Message struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type HistoryEntry struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// History carries the best-effort replay list, sent once per connection
// immediately after accept and before authentication.
type History struct {
	Type     string         `json:"type"`
	Messages []HistoryEntry `json:"messages"`
}

func NewAuthSuccess(username string) AuthSuccess {
	return AuthSuccess{Type: TypeAuthSuccess, Username: username}
}

func NewAuthError(message string) AuthError {
	return AuthError{Type: TypeAuthError, Message: message}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}

func NewMessage(username, message string) Message {
	return Message{Type: TypeMessage, Username: username, Message: message}
}

func NewHistory(entries []HistoryEntry) History {
	return History{Type: TypeHistory, Messages: entries}
}
