package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Owujuah/Finatera/internal/models"
)

// StatusMode selects how history records get their status label.
type StatusMode string

const (
	// StatusPositional labels by position after sorting newest first:
	// index 0 is success, then even indexes failed and odd indexes pending.
	StatusPositional StatusMode = "positional"
	// StatusRecorded shows the status persisted at commit time.
	StatusRecorded StatusMode = "recorded"
)

func ParseStatusMode(raw string) (StatusMode, error) {
	switch StatusMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StatusPositional:
		return StatusPositional, nil
	case StatusRecorded:
		return StatusRecorded, nil
	}
	return "", fmt.Errorf("unknown status mode %q", raw)
}

// DisplayDateLayout matches the short US date shown next to each history row.
const DisplayDateLayout = "Jan 2, 2006, 03:04 PM"

// positionalStatus is the display label for the record at index i of a newest-first list.
func positionalStatus(i int) models.TransactionStatus {
	switch {
	case i == 0:
		return models.StatusSuccess
	case i%2 == 0:
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

// ListTransactions returns the sender's transfers newest first, labelled,
// then narrowed by status filter and search term. No match is an empty slice.
func (l *Ledger) ListTransactions(ctx context.Context, senderID string, filter models.StatusFilter, search string) ([]models.TransferRecord, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, models.ErrAuthentication
	}
	if _, err := models.ParseStatusFilter(string(filter)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.commitTimeout)
	defer cancel()

	records, err := l.store.ListTransactionsBySender(ctx, senderID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return nil, models.ErrAuthentication
		}
		return nil, fmt.Errorf("%w: list transactions: %w", models.ErrPersistence, err)
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.TransferRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if l.statusMode != StatusRecorded {
		for i := range sorted {
			sorted[i].Status = positionalStatus(i)
		}
	}

	out := make([]models.TransferRecord, 0, len(sorted))
	for _, rec := range sorted {
		if filter != models.FilterAll && filter != "" && string(rec.Status) != string(filter) {
			continue
		}
		if search != "" && !l.matches(rec, search) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// matches reports whether term occurs in the receiver name or display date
// (case-insensitive), or verbatim in the receiver account or amount.
func (l *Ledger) matches(rec models.TransferRecord, term string) bool {
	lower := strings.ToLower(term)
	switch {
	case strings.Contains(strings.ToLower(rec.ReceiverName), lower):
		return true
	case strings.Contains(rec.ReceiverAccount, term):
		return true
	case strings.Contains(rec.Amount.String(), term):
		return true
	}
	return strings.Contains(strings.ToLower(l.FormatDate(rec)), lower)
}

// FormatDate renders the record's creation time the way the history view shows it.
func (l *Ledger) FormatDate(rec models.TransferRecord) string {
	return rec.CreatedAt.In(l.location).Format(DisplayDateLayout)
}
