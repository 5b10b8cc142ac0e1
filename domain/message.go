// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message represents an immutable chat event.
// It is constructed by the coordinator only after the authentication
// and rate-limit gates have both passed.
type Message struct {
	ID         uuid.UUID // unique identifier
	SenderID   string
	Content    string
	AcceptedAt time.Time
}
