// Package events contains the event contracts pushed to websocket clients.
package events

import (
	"time"
)

// ProtocolVersion is announced in every connect greeting
const ProtocolVersion = "1.0"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Dataset lifecycle
	MessageTypeDatasetReplaced MessageType = "dataset:replaced"
	MessageTypeDatasetCleared  MessageType = "dataset:cleared"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// DatasetReplaced announces a new active dataset. Views should refetch.
type DatasetReplaced struct {
	DatasetID string   `json:"dataset_id"`
	FileName  string   `json:"file_name"`
	Records   int      `json:"records"`
	Sports    []string `json:"sports"`
}

// DatasetCleared announces that the active dataset was discarded.
type DatasetCleared struct {
	DatasetID string `json:"dataset_id,omitempty"`
}

// ConnectMessage greets a newly connected client.
type ConnectMessage struct {
	ClientID      string `json:"client_id"`
	Protocol      string `json:"protocol"`
	DatasetLoaded bool   `json:"dataset_loaded"`
}
