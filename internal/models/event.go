package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionEvent is an append-only audit record of protocol traffic, kept in
// Mongo with a TTL index. It is diagnostic only and never read on the
// interview path.
type SessionEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`

	Direction string `bson:"direction" json:"direction"` // in | out
	Type      string `bson:"type" json:"type"`           // start|message|end|question|ended|error
	Payload   string `bson:"payload,omitempty" json:"payload,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
