package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry. Only KindTransfer is produced today.
type TransactionKind string

const (
	KindTransfer   TransactionKind = "transfer"
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
)

// TransactionStatus is the outcome label shown next to a record in the history.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "success"
	StatusPending TransactionStatus = "pending"
	StatusFailed  TransactionStatus = "failed"
)

// StatusFilter narrows a history listing. FilterAll keeps every record.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterSuccess StatusFilter = StatusFilter(StatusSuccess)
	FilterPending StatusFilter = StatusFilter(StatusPending)
	FilterFailed  StatusFilter = StatusFilter(StatusFailed)
)

// ParseStatusFilter maps user input onto a StatusFilter. An empty string means FilterAll.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch StatusFilter(raw) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterSuccess, FilterPending, FilterFailed:
		return StatusFilter(raw), nil
	}
	return "", fmt.Errorf("%w: unknown status filter %q", ErrValidation, raw)
}

// TransferRecord represents one outgoing transfer. It is written once and never updated.
type TransferRecord struct {
	ID              string            `json:"id"`
	SenderID        string            `json:"sender_id"`
	ReceiverName    string            `json:"receiver_name"`
	ReceiverAccount string            `json:"receiver_account"`
	Amount          decimal.Decimal   `json:"amount"` // always > 0
	Kind            TransactionKind   `json:"type"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"date"`
}

// TransferRequest is the caller's intent to move money out of SenderID.
// Amount is the raw user input and is parsed by the ledger.
type TransferRequest struct {
	SenderID        string
	ReceiverName    string
	ReceiverAccount string
	Amount          string
}
