package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/Owujuah/Finatera/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultInitialBalance is credited to every new account.
var DefaultInitialBalance = decimal.NewFromInt(765620)

type Service struct {
	store          interfaces.LedgerStore
	logger         *logrus.Logger
	initialBalance decimal.Decimal
	hashCost       int
	timeout        time.Duration
	now            func() time.Time
}

func NewService(store interfaces.LedgerStore, logger *logrus.Logger, initialBalance decimal.Decimal, timeout time.Duration) *Service {
	if initialBalance.IsNegative() {
		initialBalance = decimal.Zero
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		store:          store,
		logger:         logger,
		initialBalance: initialBalance,
		hashCost:       bcrypt.DefaultCost,
		timeout:        timeout,
		now:            time.Now,
	}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost to stay fast.
func (s *Service) SetHashCost(cost int) {
	s.hashCost = cost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a fresh card and the starting balance and
// returns its ID.
func (s *Service) Register(ctx context.Context, name, email, credential string) (string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	log := s.logger.WithField("email", email)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if credential == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s required", models.ErrValidation, strings.Join(missing, ", "))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.store.FindAccountByEmail(ctx, email)
	switch {
	case err == nil:
		log.Warn("registration rejected: email already in use")
		return "", models.ErrDuplicateEmail
	case !errors.Is(err, models.ErrAccountNotFound):
		log.WithError(err).Error("failed to check existing email")
		return "", fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), s.hashCost)
	if err != nil {
		log.WithError(err).Error("failed to hash password")
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	card, err := NewCard(now)
	if err != nil {
		log.WithError(err).Error("failed to issue card")
		return "", fmt.Errorf("issue card: %w", err)
	}
	account := models.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      s.initialBalance,
		Card:         card,
		CreatedAt:    now,
	}

	if err := s.store.PutAccount(ctx, account); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, models.ErrDuplicateEmail) {
			return "", models.ErrDuplicateEmail
		}
		log.WithError(err).Error("failed to store account")
		return "", fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	log.WithField("account_id", account.ID).Info("account registered")
	return account.ID, nil
}

// Authenticate returns the account ID whose email and password match.
func (s *Service) Authenticate(ctx context.Context, email, credential string) (string, error) {
	email = normalizeEmail(email)
	log := s.logger.WithField("email", email)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.store.FindAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrAccountNotFound) {
		log.Info("login rejected: unknown email")
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		log.WithError(err).Error("failed to look up account")
		return "", fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		log.Info("login rejected: password mismatch")
		return "", models.ErrInvalidCredentials
	}

	log.WithField("account_id", account.ID).Info("login succeeded")
	return account.ID, nil
}

// Profile returns the signed-in account, including balance and card.
func (s *Service) Profile(ctx context.Context, id string) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, models.ErrAccountNotFound) {
		return nil, models.ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return account, nil
}
