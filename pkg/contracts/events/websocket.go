// Package events defines the WebSocket message contracts used to stream
// analysis run progress to connected clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Primary event carrying the full state of an analysis run
	MessageTypeRunSnapshot MessageType = "analysis:snapshot"

	// Lifecycle events
	MessageTypeRunComplete MessageType = "analysis:complete"
	MessageTypeRunError    MessageType = "analysis:error"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Envelope is the wire framing shared by every WebSocket message
type Envelope struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// RunSnapshot carries the complete state of one analysis run. A client
// can render progress from any single snapshot without message history.
type RunSnapshot struct {
	RunID       string          `json:"run_id"`
	Status      string          `json:"status"`       // pending|running|completed|failed
	Progress    int             `json:"progress"`     // 0-100 across all stages
	CurrentStage string         `json:"current_stage,omitempty"`
	Stages      []StageSnapshot `json:"stages"`
	StartedAt   time.Time       `json:"started_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// StageSnapshot represents the state of a single pipeline stage
type StageSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"` // pending|active|completed|failed
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
