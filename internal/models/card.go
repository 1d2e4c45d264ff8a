package models

import "strings"

// Card is the virtual card issued with an account. It never changes after registration.
type Card struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVV    string `json:"cvv"`
}

// Masked hides everything but the last four digits of the card number.
func (c Card) Masked() string {
	n := c.Number
	if len(n) > 4 {
		n = n[len(n)-4:]
	}
	return "**** **** **** " + n
}

// Brand reports VISA for numbers starting with 4 and MASTERCARD for 5.
func (c Card) Brand() string {
	switch {
	case strings.HasPrefix(c.Number, "4"):
		return "VISA"
	case strings.HasPrefix(c.Number, "5"):
		return "MASTERCARD"
	}
	return "UNKNOWN"
}

// PassesLuhn runs the mod 10 check over a string of digits.
func PassesLuhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
