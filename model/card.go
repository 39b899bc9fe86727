package model

import (
	"time"

	"github.com/ericlagergren/decimal"
)

// TransactionDirection of a card transaction
type TransactionDirection string

const (
	TransactionDirectionDebit  TransactionDirection = "debit"
	TransactionDirectionCredit TransactionDirection = "credit"
)

// DirectionFromDRCR maps the issuer DR/CR marker to a direction
func DirectionFromDRCR(drcr string) TransactionDirection {
	if drcr == "CR" {
		return TransactionDirectionCredit
	}
	return TransactionDirectionDebit
}

// CardSnapshot is the live state of a card as reported by the issuer
type CardSnapshot struct {
	Code             string       `json:"code"`
	Balance          *decimal.Big `json:"balance"`
	Status           string       `json:"status"`
	CardNumber       string       `json:"card_number,omitempty"`
	CardNumberMasked string       `json:"card_number_masked"`
	ValidMonthYear   string       `json:"valid_month_year"`
	CVV              string       `json:"cvv,omitempty"`
	CVVMasked        string       `json:"cvv_masked"`
	CardName         string       `json:"card_name"`
	CardholderName   string       `json:"cardholder_name"`
	FetchedAt        time.Time    `json:"fetched_at"`
}

// Redacted returns a copy without the full card number and cvv
func (c *CardSnapshot) Redacted() *CardSnapshot {
	if c == nil {
		return nil
	}
	redacted := *c
	redacted.CardNumber = ""
	redacted.CVV = ""
	return &redacted
}

// CardTransaction is a single movement on the card
type CardTransaction struct {
	Code        string               `json:"code"`
	Description string               `json:"description"`
	Amount      *decimal.Big         `json:"amount"`
	Fee         *decimal.Big         `json:"fee"`
	Direction   TransactionDirection `json:"direction"`
	Category    string               `json:"category"`
	Status      string               `json:"status"`
	Currency    string               `json:"currency"`
	Reference   string               `json:"reference"`
	CreatedOn   string               `json:"created_on"`
}

// CardView is what the dashboard renders
type CardView struct {
	User         *User             `json:"user"`
	Card         *CardSnapshot     `json:"card"`
	Transactions []CardTransaction `json:"transactions"`
}

// Redacted returns a copy of the view with a redacted card
func (v *CardView) Redacted() *CardView {
	if v == nil {
		return nil
	}
	redacted := *v
	redacted.Card = v.Card.Redacted()
	return &redacted
}
