package models

import "errors"

// Errors returned across the ledger, accounts and storage packages.
// Their messages are safe to show to an end user.
var (
	ErrAuthentication       = errors.New("you need to be logged in to do that")
	ErrValidation           = errors.New("invalid input")
	ErrAmount               = errors.New("please enter a valid amount")
	ErrInsufficientFunds    = errors.New("you don't have enough balance for this transfer")
	ErrDuplicateEmail       = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPersistence          = errors.New("something went wrong, please try again later")
	ErrTransferFailed       = errors.New("the transfer could not be completed, please try again")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later")
)
