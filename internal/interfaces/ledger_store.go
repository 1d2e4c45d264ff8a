package interfaces

import (
	"context"

	"github.com/Owujuah/Finatera/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore is the persistence contract behind the ledger and the account service.
// Lookups that find nothing return models.ErrAccountNotFound.
type LedgerStore interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// PutAccount inserts or fully replaces an account. An email owned by a
	// different account yields models.ErrDuplicateEmail.
	PutAccount(ctx context.Context, account models.Account) error

	ListTransactionsBySender(ctx context.Context, senderID string) ([]models.TransferRecord, error)
	AppendTransaction(ctx context.Context, record models.TransferRecord) error

	// CommitTransfer debits amount from senderID and appends record as one unit.
	// Nothing is written when the balance would go negative (models.ErrInsufficientFunds)
	// or when either write fails.
	CommitTransfer(ctx context.Context, senderID string, amount decimal.Decimal, record models.TransferRecord) error
}
