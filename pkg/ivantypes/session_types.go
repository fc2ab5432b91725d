// Package ivantypes defines conversation and project types for Ivan Code.
// This file contains the core types for the live conversation transcript and the
// per-user, versioned project history.
package ivantypes

import "time"

// Message roles as sent to and received from the model invocation service.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message represents a single turn in the conversation transcript.
// Messages are immutable once created and the transcript is append-only,
// except when a stored project is resumed and replaces it wholesale.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Project is a persisted, versioned bundle of transcript plus generated artifact.
// Version starts at 1 and increases by exactly 1 on every amendment. ID and Title
// never change after creation. Messages always hold the full transcript as it was
// when the artifact was last produced, not a delta.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Code      string    `json:"code"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncStatus is the derived save indicator for the active session.
// It is never persisted.
type SyncStatus string

// Sync indicator states.
const (
	SyncSettled SyncStatus = "settled"
	SyncPending SyncStatus = "pending"
)

// SessionState identifies where the coordinator is in its turn state machine.
type SessionState string

// Coordinator states. Only one model invocation may be in flight per session;
// a submit while AwaitingModel is rejected rather than queued.
const (
	StateIdle          SessionState = "idle"
	StateAwaitingModel SessionState = "awaiting_model"
)
