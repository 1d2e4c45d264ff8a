package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Owujuah/Finatera/internal/models"
	"github.com/shopspring/decimal"
)

func seed(t *testing.T, s *MemoryLedgerStore, id, email, balance string) {
	t.Helper()
	err := s.PutAccount(context.Background(), models.Account{
		ID:      id,
		Name:    id,
		Email:   email,
		Balance: decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("PutAccount(%s): %v", id, err)
	}
}

func TestPutAccountRejectsDuplicateEmail(t *testing.T) {
	s := NewMemoryLedgerStore()
	seed(t, s, "a", "jane@example.com", "10")

	err := s.PutAccount(context.Background(), models.Account{ID: "b", Email: " Jane@Example.com "})
	if !errors.Is(err, models.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// replacing the owner with the same email is fine
	if err := s.PutAccount(context.Background(), models.Account{ID: "a", Email: "jane@example.com", Name: "Jane"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
}

func TestPutAccountMovesEmailIndex(t *testing.T) {
	s := NewMemoryLedgerStore()
	seed(t, s, "a", "old@example.com", "10")
	seed(t, s, "a", "new@example.com", "10")

	if _, err := s.FindAccountByEmail(context.Background(), "old@example.com"); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("old email should be released, got %v", err)
	}
	acc, err := s.FindAccountByEmail(context.Background(), "NEW@example.com")
	if err != nil {
		t.Fatalf("FindAccountByEmail: %v", err)
	}
	if acc.ID != "a" {
		t.Fatalf("got id %q want a", acc.ID)
	}
}

func TestGetAccountReturnsCopy(t *testing.T) {
	s := NewMemoryLedgerStore()
	seed(t, s, "a", "a@example.com", "10")

	acc, _ := s.GetAccount(context.Background(), "a")
	acc.Balance = decimal.NewFromInt(9999)

	again, _ := s.GetAccount(context.Background(), "a")
	if !again.Balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("store leaked internal state: balance=%s", again.Balance)
	}
}

func TestCommitTransfer(t *testing.T) {
	s := NewMemoryLedgerStore()
	seed(t, s, "a", "a@example.com", "100.00")
	ctx := context.Background()

	rec := models.TransferRecord{ID: "t1", SenderID: "a", Amount: decimal.RequireFromString("40.50"), CreatedAt: time.Now()}
	if err := s.CommitTransfer(ctx, "a", rec.Amount, rec); err != nil {
		t.Fatalf("CommitTransfer: %v", err)
	}

	acc, _ := s.GetAccount(ctx, "a")
	if !acc.Balance.Equal(decimal.RequireFromString("59.50")) {
		t.Fatalf("balance=%s want 59.50", acc.Balance)
	}
	recs, _ := s.ListTransactionsBySender(ctx, "a")
	if len(recs) != 1 || recs[0].ID != "t1" {
		t.Fatalf("records=%+v", recs)
	}

	over := models.TransferRecord{ID: "t2", SenderID: "a", Amount: decimal.NewFromInt(60)}
	if err := s.CommitTransfer(ctx, "a", over.Amount, over); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	recs, _ = s.ListTransactionsBySender(ctx, "a")
	if len(recs) != 1 {
		t.Fatalf("failed commit must not append, have %d records", len(recs))
	}

	if err := s.CommitTransfer(ctx, "missing", decimal.NewFromInt(1), models.TransferRecord{}); !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestListTransactionsBySenderFilters(t *testing.T) {
	s := NewMemoryLedgerStore()
	ctx := context.Background()
	_ = s.AppendTransaction(ctx, models.TransferRecord{ID: "1", SenderID: "a"})
	_ = s.AppendTransaction(ctx, models.TransferRecord{ID: "2", SenderID: "b"})
	_ = s.AppendTransaction(ctx, models.TransferRecord{ID: "3", SenderID: "a"})

	recs, err := s.ListTransactionsBySender(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "1" || recs[1].ID != "3" {
		t.Fatalf("got %+v", recs)
	}

	none, _ := s.ListTransactionsBySender(ctx, "nobody")
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}
}

func TestCancelledContext(t *testing.T) {
	s := NewMemoryLedgerStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetAccount(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := s.CommitTransfer(ctx, "a", decimal.NewFromInt(1), models.TransferRecord{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
