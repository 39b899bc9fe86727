package model

import (
	"math/big"
	"strings"
	"time"

	"github.com/ericlagergren/decimal"
	gouuid "github.com/nu7hatch/gouuid"
)

// PaymentPurpose identifies the off-chain side effect of a payment
type PaymentPurpose string

const (
	// PaymentPurposeRegistration pays the card registration fee
	PaymentPurposeRegistration PaymentPurpose = "registration"
	// PaymentPurposeTopUp credits the card balance
	PaymentPurposeTopUp PaymentPurpose = "top_up"
)

func (p PaymentPurpose) String() string {
	return string(p)
}

// IsValid godoc
func (p PaymentPurpose) IsValid() bool {
	switch p {
	case PaymentPurposeRegistration, PaymentPurposeTopUp:
		return true
	default:
		return false
	}
}

// PaymentState of a tracked payment
type PaymentState string

const (
	PaymentStateIdle      PaymentState = "idle"
	PaymentStateSubmitted PaymentState = "submitted"
	PaymentStateConfirmed PaymentState = "confirmed"
	PaymentStateFailed    PaymentState = "failed"
)

func (s PaymentState) String() string {
	return string(s)
}

// IsFinal returns true for confirmed and failed payments
func (s PaymentState) IsFinal() bool {
	return s == PaymentStateConfirmed || s == PaymentStateFailed
}

// PaymentIntent is a quote for an on-chain payment. It is never persisted.
type PaymentIntent struct {
	QuoteID       string         `json:"quote_id"`
	Wallet        string         `json:"wallet"`
	Purpose       PaymentPurpose `json:"purpose"`
	Recipient     string         `json:"recipient"`
	USDAmount     *decimal.Big   `json:"usd_amount"`
	FeeRate       *decimal.Big   `json:"fee_rate"`
	TokenPriceUSD *decimal.Big   `json:"token_price_usd"`
	TokenAmount   *big.Int       `json:"token_amount"`
	Value         *big.Int       `json:"value"`
	FallbackPrice bool           `json:"fallback_price"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Payment is a single attempt to settle a PaymentIntent on-chain
type Payment struct {
	ID        string         `json:"id"`
	Intent    *PaymentIntent `json:"intent"`
	TxHash    string         `json:"tx_hash"`
	State     PaymentState   `json:"state"`
	Custodial bool           `json:"custodial"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewPayment creates a payment in the idle state
func NewPayment(intent *PaymentIntent) *Payment {
	id := ""
	if u, err := gouuid.NewV4(); err == nil {
		id = u.String()
	}
	now := time.Now()
	return &Payment{
		ID:        id,
		Intent:    intent,
		State:     PaymentStateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewQuoteID returns the random id a client presents when it pays a quote
func NewQuoteID() string {
	u, err := gouuid.NewV4()
	if err != nil {
		return ""
	}
	return u.String()
}

// NormalizeTxHash lower-cases a transaction hash so it can be used as an idempotency key
func NormalizeTxHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// IsTxHash checks that the value is a 32 byte hex string
func IsTxHash(hash string) bool {
	hash = strings.TrimSpace(hash)
	if len(hash) != 66 || !strings.HasPrefix(hash, "0x") {
		return false
	}
	for _, c := range hash[2:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
