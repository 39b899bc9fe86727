package model

import "time"

// PaymentEvent is published on the event stream for every confirmed payment
type PaymentEvent struct {
	ID        string         `json:"id"`
	Purpose   PaymentPurpose `json:"purpose"`
	Wallet    string         `json:"wallet"`
	TxHash    string         `json:"tx_hash"`
	USDAmount string         `json:"usd_amount"`
	Value     string         `json:"value"`
	CardCode  string         `json:"card_code,omitempty"`
	Email     string         `json:"email,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// CardStatusEvent is pushed to the wallet's live channel
type CardStatusEvent struct {
	Wallet string `json:"wallet"`
	Route  Route  `json:"route"`
	Event  string `json:"event"`
	TxHash string `json:"tx_hash,omitempty"`
}

const (
	CardStatusEventCurrent = "current"
	CardStatusEventWaiting = "waiting"
	CardStatusEventReady   = "ready"
	CardStatusEventRefresh = "refresh"
	CardStatusEventFailed  = "payment_failed"
)
