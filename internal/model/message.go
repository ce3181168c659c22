package model

import "time"

// Scope says whether a conversation belongs to a group or a single user
type Scope string

const (
	ScopeGroup Scope = "group"
	ScopeUser  Scope = "user"
)

// Message is an immutable conversation entry owned by the transport/storage layer
type Message struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Scope     Scope     `json:"scope,omitempty" bson:"scope"`
	ScopeID   string    `json:"scopeId,omitempty" bson:"scopeId"`
	SenderID  string    `json:"senderId" bson:"senderId"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// MediatorSenderID marks messages posted by the mediator itself
const MediatorSenderID = "mediator"

// MediatorName is how mediator turns appear in transcripts
const MediatorName = "Mediador"
