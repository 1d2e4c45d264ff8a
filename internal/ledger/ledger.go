package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/Owujuah/Finatera/internal/models"
	"github.com/Owujuah/Finatera/internal/models/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultCommitTimeout = 5 * time.Second

// Ledger moves money out of accounts and answers history queries.
// Balance-mutating calls for the same sender are serialized by a per-account mutex.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher
	logger    *logrus.Logger

	topic         string
	commitTimeout time.Duration
	statusMode    StatusMode
	location      *time.Location
	now           func() time.Time
	newID         func() string

	muMap map[string]*sync.Mutex // one mutex per sender account
	mapMu sync.Mutex             // protects muMap itself
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithPublisher sends a TransferCompleted event on topic after every committed transfer.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		if topic != "" {
			l.topic = topic
		}
	}
}

// WithCommitTimeout bounds every store call made by the ledger.
func WithCommitTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.commitTimeout = d
		}
	}
}

func WithStatusMode(m StatusMode) Option {
	return func(l *Ledger) { l.statusMode = m }
}

// WithLocation sets the time zone used to render dates for history search.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger creates a Ledger over store. Without options it publishes nothing,
// labels history positionally and renders dates in UTC.
func NewLedger(store interfaces.LedgerStore, logger *logrus.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:         store,
		logger:        logger,
		topic:         events.TopicTransferCompleted,
		commitTimeout: DefaultCommitTimeout,
		statusMode:    StatusPositional,
		location:      time.UTC,
		now:           time.Now,
		newID:         uuid.NewString,
		muMap:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// loadSender resolves the sender, turning a missing account into ErrAuthentication.
func (l *Ledger) loadSender(ctx context.Context, senderID string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, l.commitTimeout)
	defer cancel()

	acc, err := l.store.GetAccount(ctx, senderID)
	switch {
	case errors.Is(err, models.ErrAccountNotFound):
		return nil, models.ErrAuthentication
	case err != nil:
		return nil, fmt.Errorf("%w: load account: %w", models.ErrPersistence, err)
	}
	return acc, nil
}

// amountPattern bounds the input before it reaches decimal parsing: plain digits,
// at most two fractional digits, no sign or exponent.
var amountPattern = regexp.MustCompile(`^[0-9]{1,18}(\.[0-9]{1,2})?$`)

// ParseAmount turns user input into a positive amount with at most two decimal places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !amountPattern.MatchString(raw) {
		return decimal.Zero, models.ErrAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, models.ErrAmount
	}
	return amount, nil
}

func validateFields(req models.TransferRequest) error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(req.ReceiverName) == "" {
		missing = append(missing, "receiver name")
	}
	if strings.TrimSpace(req.ReceiverAccount) == "" {
		missing = append(missing, "receiver account")
	}
	if strings.TrimSpace(req.Amount) == "" {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", models.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Transfer debits req.Amount from the sender and records the transfer.
//
// Preconditions are checked in order: the sender exists, every field is present,
// the amount is a positive number, and the balance covers it. The debit and the
// record are committed together through the store, so a failure leaves both
// untouched.
func (l *Ledger) Transfer(ctx context.Context, req models.TransferRequest) (*models.TransferRecord, error) {
	log := l.logger.WithField("sender_id", req.SenderID)

	if strings.TrimSpace(req.SenderID) == "" {
		return nil, models.ErrAuthentication
	}
	if _, err := l.loadSender(ctx, req.SenderID); err != nil {
		return nil, err
	}
	if err := validateFields(req); err != nil {
		return nil, err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		log.WithField("amount", req.Amount).Debug("rejected transfer amount")
		return nil, err
	}

	mu := l.getAccountLock(req.SenderID)
	mu.Lock()
	defer mu.Unlock()

	// re-read under the lock so the balance check sees every earlier commit
	account, err := l.loadSender(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(account.Balance) {
		log.WithFields(logrus.Fields{
			"amount":  amount.String(),
			"balance": account.Balance.String(),
		}).Info("transfer rejected: insufficient funds")
		return nil, models.ErrInsufficientFunds
	}

	record := models.TransferRecord{
		ID:              l.newID(),
		SenderID:        account.ID,
		ReceiverName:    strings.TrimSpace(req.ReceiverName),
		ReceiverAccount: strings.TrimSpace(req.ReceiverAccount),
		Amount:          amount,
		Kind:            models.KindTransfer,
		Status:          models.StatusSuccess,
		CreatedAt:       l.now().UTC(),
	}

	commitCtx, cancel := context.WithTimeout(ctx, l.commitTimeout)
	defer cancel()

	if err := l.store.CommitTransfer(commitCtx, account.ID, amount, record); err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientFunds):
			return nil, models.ErrInsufficientFunds
		case errors.Is(err, models.ErrAccountNotFound):
			return nil, models.ErrAuthentication
		}
		log.WithError(err).WithField("transfer_id", record.ID).Error("transfer commit failed")
		return nil, fmt.Errorf("%w: %w: commit: %w", models.ErrTransferFailed, models.ErrPersistence, err)
	}

	balanceAfter := account.Balance.Sub(amount)
	log.WithFields(logrus.Fields{
		"transfer_id":   record.ID,
		"amount":        amount.String(),
		"balance_after": balanceAfter.String(),
	}).Info("transfer committed")

	l.publishCompleted(ctx, record, balanceAfter)
	return &record, nil
}

// publishCompleted is best effort: the transfer is already committed.
func (l *Ledger) publishCompleted(ctx context.Context, record models.TransferRecord, balanceAfter decimal.Decimal) {
	if l.publisher == nil {
		return
	}

	event := events.TransferCompleted{
		TransferID:      record.ID,
		SenderID:        record.SenderID,
		ReceiverName:    record.ReceiverName,
		ReceiverAccount: record.ReceiverAccount,
		Amount:          record.Amount,
		BalanceAfter:    balanceAfter,
		OccurredAt:      record.CreatedAt,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.commitTimeout)
	defer cancel()

	if err := l.publisher.Publish(pubCtx, l.topic, event); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"transfer_id": record.ID,
			"topic":       l.topic,
		}).Warn("failed to publish transfer event")
	}
}
