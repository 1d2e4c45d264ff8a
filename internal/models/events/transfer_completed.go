package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicTransferCompleted is the default topic / routing key for TransferCompleted.
const TopicTransferCompleted = "transfer_completed"

type TransferCompleted struct {
	TransferID      string          `json:"transfer_id"`
	SenderID        string          `json:"sender_id"`
	ReceiverName    string          `json:"receiver_name"`
	ReceiverAccount string          `json:"receiver_account"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// PartitionKey keeps one sender's events in order on a single partition.
func (e TransferCompleted) PartitionKey() string {
	return e.SenderID
}
