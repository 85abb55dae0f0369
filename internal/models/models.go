package models

import (
	"encoding/json"
	"time"
)

// Account is a tenant. Inbound senders authenticate with the account's
// secret token; the pipeline only ever reads accounts.
type Account struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Website     string    `json:"website,omitempty"`
	SecretToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Destination is a delivery target owned by exactly one account.
type Destination struct {
	ID         string            `json:"id"`
	AccountID  string            `json:"account_id"`
	URL        string            `json:"url"`
	HTTPMethod string            `json:"http_method"`
	Headers    map[string]string `json:"headers"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Delivery statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// DeliveryLog is the append-only record of one intended delivery,
// one per (event, destination) pair. Never updated after creation.
type DeliveryLog struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	AccountID     string          `json:"account_id"`
	DestinationID string          `json:"destination_id"`
	ReceivedData  json.RawMessage `json:"received_data"`
	Status        string          `json:"status"`
	ReceivedAt    time.Time       `json:"received_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// Event is an inbound payload plus its caller-supplied metadata. Events are
// not persisted themselves; only delivery logs are.
type Event struct {
	ID       string
	SourceIP string
	Payload  json.RawMessage
}

// IngestResponse is the wire response for the ingestion endpoint.
type IngestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
