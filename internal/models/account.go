package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered user together with its balance and virtual card.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"` // never negative after a commit
	Card         Card            `json:"card"`
	CreatedAt    time.Time       `json:"created_at"`
}
