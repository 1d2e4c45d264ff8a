package accounts

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/Owujuah/Finatera/internal/models"
)

// cardValidity is how far ahead the expiry date of a new card lies.
const cardValidity = 2

// NewCard issues a 16 digit VISA or MASTERCARD number with a valid Luhn check
// digit, an MM/YY expiry two years after now and a three digit CVV.
func NewCard(now time.Time) (models.Card, error) {
	card := models.Card{
		Number: cardNumber(),
		Expiry: expiryDate(now),
		CVV:    strconv.Itoa(100 + rand.Intn(900)),
	}
	if !models.PassesLuhn(card.Number) {
		return models.Card{}, fmt.Errorf("issued card number %s fails the check digit", card.Masked())
	}
	return card, nil
}

func cardNumber() string {
	digits := make([]byte, 0, 16)
	if rand.Intn(2) == 0 {
		digits = append(digits, '4')
	} else {
		digits = append(digits, '5')
	}
	for len(digits) < 15 {
		digits = append(digits, byte('0'+rand.Intn(10)))
	}
	return string(append(digits, luhnCheckDigit(digits)))
}

// luhnCheckDigit computes the digit that makes payload+digit pass the mod 10 check.
func luhnCheckDigit(payload []byte) byte {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		n := int(payload[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

func expiryDate(now time.Time) string {
	return fmt.Sprintf("%02d/%02d", int(now.Month()), (now.Year()+cardValidity)%100)
}
