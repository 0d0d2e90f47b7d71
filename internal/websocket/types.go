package websocket

import (
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/groundtruth/concierge/internal/privacy"
)

// EventType represents the type of dashboard event
type EventType string

const (
	// EventTypeMaskingDetection reports that sensitive data was masked
	EventTypeMaskingDetection EventType = "masking_detection"
	// EventTypeRequestLog reports a completed HTTP request
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus reports server status
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection reports dashboard client connects/disconnects
	EventTypeConnection EventType = "connection"
)

// Event is one message pushed to dashboard clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// MaskingDetectionEvent carries per-category detection counts for one
// chat turn. Only counts leave the process; masked values never do.
type MaskingDetectionEvent struct {
	RequestID     string            `json:"request_id"`
	UserID        string            `json:"user_id"`
	Findings      []privacy.Finding `json:"findings"`
	TotalFindings int               `json:"total_findings"`
	ProcessingMS  float64           `json:"processing_ms"`
}

// RequestLogEvent describes a completed HTTP request
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	Duration   time.Duration `json:"duration"`
}

// SystemStatusEvent describes current server health
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalRequests    int64  `json:"total_requests"`
	TotalDetections  int64  `json:"total_detections"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent describes dashboard client lifecycle changes
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}

// ClientMessage represents messages sent from dashboard clients
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest narrows which event types a client receives
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// Client is one connected dashboard socket
type Client struct {
	ID           string
	Conn         *gws.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
}
