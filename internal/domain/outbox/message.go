package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/transaction"
)

// Message is one transaction event waiting to be relayed. It is written in the
// same unit of work as the ledger change it describes.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Reference     string              `json:"reference"`
	EventStatus   transaction.Status  `json:"event_status"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage snapshots event as the payload to relay
func NewMessage(event *transaction.Event, now time.Time) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event for %s: %w", event.Status, event.Reference, err)
	}

	return &Message{
		TransactionID: event.TransactionID,
		Reference:     event.Reference,
		EventStatus:   event.Status,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     now,
	}, nil
}

// PartitionKey keeps every event of one transaction on one partition
func (m *Message) PartitionKey() string {
	if m.Reference != "" {
		return m.Reference
	}
	return m.TransactionID.String()
}

// RecordFailure counts a failed relay attempt and gives up once maxAttempts is
// reached. It returns the resulting status.
func (m *Message) RecordFailure(maxAttempts int, now time.Time) shared.OutboxStatus {
	m.Attempts++
	m.LastAttemptAt = &now
	if m.Attempts >= maxAttempts {
		m.Status = shared.OutboxStatusFailedToPublish
	}
	return m.Status
}

// Event decodes the payload back into the transaction event
func (m *Message) Event() (*transaction.Event, error) {
	var event transaction.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
