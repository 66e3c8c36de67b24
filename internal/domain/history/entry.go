package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/transaction"
)

// Entry is one user's view of a transaction, projected from published events
type Entry struct {
	TransactionID uuid.UUID          `json:"transaction_id" bson:"transaction_id"`
	Reference     string             `json:"reference" bson:"reference"`
	UserID        string             `json:"user_id" bson:"user_id"`
	Type          transaction.Type   `json:"type" bson:"type"`
	Status        transaction.Status `json:"status" bson:"status"`
	Amount        int64              `json:"amount" bson:"amount"` // signed from the user's side, minor units
	Currency      string             `json:"currency" bson:"currency"`
	Ghost         bool               `json:"ghost" bson:"ghost"`
	Counterparty  string             `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at" bson:"occurred_at"`
	ProjectedAt   time.Time          `json:"projected_at" bson:"projected_at"`
}

// FromEvent expands an event into one entry per user it touched.
// Failed events carry no applied legs, so the sender alone sees them.
func FromEvent(event *transaction.Event, projectedAt time.Time) []*Entry {
	net := map[string]int64{}
	var order []string
	for _, leg := range event.Legs {
		if leg.Kind != transaction.AccountWallet {
			continue
		}
		if _, seen := net[leg.OwnerID]; !seen {
			order = append(order, leg.OwnerID)
		}
		net[leg.OwnerID] += leg.Delta
	}
	if len(order) == 0 && event.SenderID != "" {
		order = append(order, event.SenderID)
		net[event.SenderID] = 0
	}

	entries := make([]*Entry, 0, len(order))
	for _, userID := range order {
		counterparty := event.ReceiverID
		if userID == event.ReceiverID {
			counterparty = event.SenderID
		}
		entries = append(entries, &Entry{
			TransactionID: event.TransactionID,
			Reference:     event.Reference,
			UserID:        userID,
			Type:          event.Type,
			Status:        event.Status,
			Amount:        net[userID],
			Currency:      event.Currency,
			Ghost:         event.Ghost,
			Counterparty:  counterparty,
			FailureReason: event.FailureReason,
			CorrelationID: event.CorrelationID,
			OccurredAt:    event.OccurredAt,
			ProjectedAt:   projectedAt,
		})
	}
	return entries
}
