package service

import "errors"

var (
	// ErrAmountBelowMinimum is returned for quotes under the configured minimum
	ErrAmountBelowMinimum = errors.New("Amount is below the minimum")
	// ErrAmountAboveMaximum is returned for quotes over the configured maximum or too large to price
	ErrAmountAboveMaximum = errors.New("Amount is above the maximum")
	// ErrPriceUnavailable is returned when no positive token price is known
	ErrPriceUnavailable = errors.New("Token price unavailable")
	// ErrNoPendingQuote is returned when a payment is reported without a live quote
	ErrNoPendingQuote = errors.New("No pending quote for this wallet")
	// ErrUserNotFound godoc
	ErrUserNotFound = errors.New("User not found")
	// ErrUserExists is returned when the wallet is already registered
	ErrUserExists = errors.New("User already registered")
	// ErrCardNotProvisioned is returned while the card of the user is not created yet
	ErrCardNotProvisioned = errors.New("Card not provisioned yet")
	// ErrTransactionMismatch is returned when a reported transaction does not pay the quote
	ErrTransactionMismatch = errors.New("Transaction does not match the quote")
	// ErrInvalidTxHash godoc
	ErrInvalidTxHash = errors.New("Invalid transaction hash")
	// ErrInvalidPurpose godoc
	ErrInvalidPurpose = errors.New("Invalid payment purpose")
	// ErrPaymentNotFound godoc
	ErrPaymentNotFound = errors.New("Payment not found")
	// ErrFeatureDisabled is returned when the operation is switched off
	ErrFeatureDisabled = errors.New("This feature is currently disabled")
	// ErrGatewayUnavailable wraps failures of the card issuer
	ErrGatewayUnavailable = errors.New("Unable to reach the card issuer")
)
