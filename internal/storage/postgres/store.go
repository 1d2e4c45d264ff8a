package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	interfaces "github.com/Owujuah/Finatera/internal/interfaces" // interface LedgerStore
	"github.com/Owujuah/Finatera/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "unique_violation"

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresLedgerStore(db), nil
}

// Migrate creates the accounts and transactions tables when missing.
func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

const accountColumns = `id, name, email, password_hash, balance, card_number, card_expiry, card_cvv, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Email,
		&acc.PasswordHash,
		&acc.Balance,
		&acc.Card.Number,
		&acc.Card.Expiry,
		&acc.Card.CVV,
		&acc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(p.db.QueryRowContext(ctx, query, id))
}

func (p *PostgresLedgerStore) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return scanAccount(p.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

func (p *PostgresLedgerStore) PutAccount(ctx context.Context, acc models.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		password_hash = EXCLUDED.password_hash,
		balance = EXCLUDED.balance,
		card_number = EXCLUDED.card_number,
		card_expiry = EXCLUDED.card_expiry,
		card_cvv = EXCLUDED.card_cvv,
		created_at = EXCLUDED.created_at`

	_, err := p.db.ExecContext(ctx, query,
		acc.ID, acc.Name, strings.TrimSpace(acc.Email), acc.PasswordHash, acc.Balance,
		acc.Card.Number, acc.Card.Expiry, acc.Card.CVV, acc.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == uniqueViolation {
		return models.ErrDuplicateEmail
	}
	return err
}

func (p *PostgresLedgerStore) ListTransactionsBySender(ctx context.Context, senderID string) ([]models.TransferRecord, error) {
	const query = `SELECT id, sender_id, receiver_name, receiver_account, amount, kind, status, created_at
	FROM transactions WHERE sender_id = $1 ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query, senderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.TransferRecord, 0)
	for rows.Next() {
		var rec models.TransferRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SenderID,
			&rec.ReceiverName,
			&rec.ReceiverAccount,
			&rec.Amount,
			&rec.Kind,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, rec models.TransferRecord) error {
	const query = `INSERT INTO transactions (id, sender_id, receiver_name, receiver_account, amount, kind, status, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := db.ExecContext(ctx, query,
		rec.ID, rec.SenderID, rec.ReceiverName, rec.ReceiverAccount,
		rec.Amount, rec.Kind, rec.Status, rec.CreatedAt,
	)
	return err
}

func (p *PostgresLedgerStore) AppendTransaction(ctx context.Context, rec models.TransferRecord) error {
	return insertTransaction(ctx, p.db, rec)
}

// CommitTransfer runs the guarded debit and the insert in one database transaction.
// The WHERE balance >= $1 guard keeps concurrent writers from overdrawing even
// when they live in other processes.
func (p *PostgresLedgerStore) CommitTransfer(ctx context.Context, senderID string, amount decimal.Decimal, rec models.TransferRecord) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const debit = `UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1`
	res, err := dbTx.ExecContext(ctx, debit, amount, senderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err = dbTx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, senderID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			err = models.ErrAccountNotFound
			return err
		}
		err = models.ErrInsufficientFunds
		return err
	}

	if err = insertTransaction(ctx, dbTx, rec); err != nil {
		return err
	}
	return dbTx.Commit()
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
