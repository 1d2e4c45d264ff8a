package memory

import (
	"context" // request-scoped cancellation; checked before every operation
	"strings"
	"sync"

	interfaces "github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/Owujuah/Finatera/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It keeps accounts in a map and transfer records in an append-only slice,
// and is safe for concurrent use.
type MemoryLedgerStore struct {
	mu           sync.Mutex                // guards every field below
	accounts     map[string]models.Account // account ID -> account
	emails       map[string]string         // normalized email -> account ID
	transactions []models.TransferRecord   // all records in insertion order
}

// NewMemoryLedgerStore creates and returns an empty MemoryLedgerStore.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:     make(map[string]models.Account),
		emails:       make(map[string]string),
		transactions: make([]models.TransferRecord, 0),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &acc, nil // acc is already a copy of the map value
}

func (m *MemoryLedgerStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[normalizeEmail(email)]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	acc := m.accounts[id]
	return &acc, nil
}

// PutAccount inserts or replaces an account, keeping the email index in step.
func (m *MemoryLedgerStore) PutAccount(ctx context.Context, account models.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalizeEmail(account.Email)
	if owner, taken := m.emails[key]; taken && owner != account.ID {
		return models.ErrDuplicateEmail
	}
	if prev, exists := m.accounts[account.ID]; exists {
		delete(m.emails, normalizeEmail(prev.Email))
	}

	m.accounts[account.ID] = account
	m.emails[key] = account.ID
	return nil
}

// ListTransactionsBySender returns a copy of the sender's records in insertion order.
func (m *MemoryLedgerStore) ListTransactionsBySender(ctx context.Context, senderID string) ([]models.TransferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.TransferRecord, 0)
	for _, tx := range m.transactions {
		if tx.SenderID == senderID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) AppendTransaction(ctx context.Context, record models.TransferRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions = append(m.transactions, record)
	return nil
}

// CommitTransfer applies the debit and the append inside one critical section,
// so readers never observe one without the other.
func (m *MemoryLedgerStore) CommitTransfer(ctx context.Context, senderID string, amount decimal.Decimal, record models.TransferRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[senderID]
	if !ok {
		return models.ErrAccountNotFound
	}
	if acc.Balance.LessThan(amount) {
		return models.ErrInsufficientFunds
	}

	acc.Balance = acc.Balance.Sub(amount)
	m.accounts[senderID] = acc
	m.transactions = append(m.transactions, record)
	return nil
}

// Close is a no-op so the store can be handed to the same shutdown path as a database.
func (m *MemoryLedgerStore) Close() error { return nil }

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
