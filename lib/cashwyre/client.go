package cashwyre

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/lib/httpagent"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/monitor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	getCardsEndpoint        = "/CustomerCard/getCards"
	getTransactionsEndpoint = "/CustomerCard/getCardTransactions"
)

// ErrCardNotFound is returned when the customer has no card with the requested code
var ErrCardNotFound = errors.New("Card not found")

// APIError is returned for non 2xx responses
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Cashwyre API Error: %d - %s", e.Status, e.Body)
}

// Config structure
type Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	SecretKey    string        `mapstructure:"secret_key"`
	AppID        string        `mapstructure:"app_id"`
	BusinessCode string        `mapstructure:"business_code"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Client for the card issuer business API
type Client struct {
	cfg   Config
	agent *httpagent.Agent
}

// NewClient godoc
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, agent: httpagent.New(cfg.Timeout)}
}

// NewRequestID returns a random upper-case alphanumeric id
func NewRequestID() string {
	return strings.ToUpper(xid.New().String())
}

func (c *Client) base() baseRequest {
	return baseRequest{
		AppID:        c.cfg.AppID,
		BusinessCode: c.cfg.BusinessCode,
		RequestID:    NewRequestID(),
	}
}

func (c *Client) post(ctx context.Context, endpoint string, request, response interface{}) error {
	start := time.Now()
	result := "ok"
	defer func() {
		monitor.GatewayRequestDelay.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(request)
	if err != nil {
		result = "error"
		return err
	}
	code, data, err := c.agent.PostJSON(ctx, c.cfg.BaseURL+endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.SecretKey,
	})
	if err != nil {
		result = "error"
		return errors.Wrapf(err, "cashwyre %s", endpoint)
	}
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		result = "error"
		return &APIError{Status: code, Body: string(data)}
	}
	if err := json.Unmarshal(data, response); err != nil {
		result = "error"
		return errors.Wrapf(err, "cashwyre %s: unable to decode response", endpoint)
	}
	return nil
}

// GetCards lists all cards of the customer
func (c *Client) GetCards(ctx context.Context, customerCode, customerEmail string) ([]CardData, error) {
	req := GetCardsRequest{
		baseRequest:   c.base(),
		CustomerCode:  customerCode,
		CustomerEmail: customerEmail,
	}
	resp := cardsResponse{}
	if err := c.post(ctx, getCardsEndpoint, req, &resp); err != nil {
		log.Error().Err(err).Str("section", "cashwyre").Str("action", "getCards").Str("request_id", req.RequestID).Msg("Unable to get cards")
		return nil, err
	}
	return resp.Data, nil
}

// GetCard returns the snapshot of a single card of the customer
func (c *Client) GetCard(ctx context.Context, customerCode, customerEmail, cardCode string) (*model.CardSnapshot, error) {
	cards, err := c.GetCards(ctx, customerCode, customerEmail)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].Code == cardCode {
			return toSnapshot(&cards[i]), nil
		}
	}
	return nil, ErrCardNotFound
}

// GetCardTransactions lists the card transactions in the order returned by the issuer
func (c *Client) GetCardTransactions(ctx context.Context, cardCode string) ([]model.CardTransaction, error) {
	req := GetTransactionsRequest{
		baseRequest: c.base(),
		CardCode:    cardCode,
	}
	resp := transactionsResponse{}
	if err := c.post(ctx, getTransactionsEndpoint, req, &resp); err != nil {
		log.Error().Err(err).Str("section", "cashwyre").Str("action", "getCardTransactions").Str("request_id", req.RequestID).Msg("Unable to get card transactions")
		return nil, err
	}
	list := make([]model.CardTransaction, 0, len(resp.Data))
	for i := range resp.Data {
		list = append(list, toTransaction(&resp.Data[i]))
	}
	return list, nil
}

func toSnapshot(card *CardData) *model.CardSnapshot {
	return &model.CardSnapshot{
		Code:             card.Code,
		Balance:          conv.FromFloat(card.CardBalance),
		Status:           card.Status,
		CardNumber:       card.CardNumber,
		CardNumberMasked: card.CardNumberMasked,
		ValidMonthYear:   card.ValidMonthYear,
		CVV:              card.CVV2,
		CVVMasked:        card.CVV2Masked,
		CardName:         card.CardName,
		CardholderName:   card.CustomerName,
		FetchedAt:        time.Now(),
	}
}

func toTransaction(tx *TransactionData) model.CardTransaction {
	return model.CardTransaction{
		Code:        tx.Code,
		Description: tx.Description,
		Amount:      conv.FromFloat(tx.Amount),
		Fee:         conv.FromFloat(tx.Fee),
		Direction:   model.DirectionFromDRCR(tx.DRCR),
		Category:    tx.Category,
		Status:      tx.Status,
		Currency:    tx.Currency,
		Reference:   tx.Reference,
		CreatedOn:   tx.CreatedOn,
	}
}
