package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Event is published for every transaction that reaches a terminal status
type Event struct {
	TransactionID uuid.UUID      `json:"transaction_id"`
	Reference     string         `json:"reference"`
	Type          Type           `json:"type"`
	Status        Status         `json:"status"`
	SenderID      string         `json:"sender_id,omitempty"`
	ReceiverID    string         `json:"receiver_id,omitempty"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	Ghost         bool           `json:"ghost"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Legs          []EventLeg     `json:"legs,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// EventLeg is the published shape of a leg
type EventLeg struct {
	Kind    AccountKind `json:"kind"`
	OwnerID string      `json:"owner_id,omitempty"`
	Ref     string      `json:"ref,omitempty"`
	Delta   int64       `json:"delta"`
	Role    Role        `json:"role"`
}

func NewEvent(t *Transaction, legs []Leg, correlationID string) *Event {
	e := &Event{
		TransactionID: t.ID,
		Reference:     t.Reference,
		Type:          t.Type,
		Status:        t.Status,
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Ghost:         t.Ghost,
		FailureReason: t.FailureReason,
		Metadata:      t.Metadata,
		CorrelationID: correlationID,
		OccurredAt:    t.UpdatedAt,
	}
	for _, leg := range legs {
		e.Legs = append(e.Legs, EventLeg{
			Kind:    leg.Account.Kind,
			OwnerID: leg.Account.OwnerID,
			Ref:     leg.Account.Ref,
			Delta:   leg.Delta,
			Role:    leg.Role,
		})
	}
	return e
}
