package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/lib/httpagent"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrReceiptPending is returned while the transaction is not mined yet
	ErrReceiptPending = errors.New("Transaction receipt not available yet")
	// ErrTransactionNotFound godoc
	ErrTransactionNotFound = errors.New("Transaction not found")
	// ErrBlockNotFound godoc
	ErrBlockNotFound = errors.New("Block not found")
)

// Client talks to an EVM node over JSON-RPC
type Client struct {
	url   string
	agent *httpagent.Agent
	id    int64
}

// NewClient creates a JSON-RPC client for the given node url
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, agent: httpagent.New(timeout)}
}

// CallRPC sends a single request and returns the decoded envelope.
// JSON-RPC level errors are returned as *RPCError.
func (c *Client) CallRPC(ctx context.Context, method string, params ...interface{}) (*RPCResponse, error) {
	if params == nil {
		params = []interface{}{}
	}
	req := RPCRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddInt64(&c.id, 1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	code, data, err := c.agent.PostJSON(ctx, c.url, body, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "%s failed", method)
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("%s failed: invalid status code: %d (%s)", method, code, http.StatusText(code))
	}

	resp := &RPCResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, errors.Wrapf(err, "%s: unable to decode response", method)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp, nil
}

// ChainID returns the id of the connected chain
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	resp, err := c.CallRPC(ctx, "eth_chainId")
	if err != nil {
		return nil, err
	}
	var hex string
	if err := json.Unmarshal(resp.Result, &hex); err != nil {
		return nil, errors.Wrap(err, "unable to decode chain id")
	}
	id, ok := conv.HexToBig(hex)
	if !ok {
		return nil, fmt.Errorf("invalid chain id %q", hex)
	}
	return id, nil
}

// SendTransaction asks the node to sign and broadcast a native transfer from an unlocked account
func (c *Client) SendTransaction(ctx context.Context, from, to string, value *big.Int) (string, error) {
	resp, err := c.CallRPC(ctx, "eth_sendTransaction", SendTxArgs{
		From:  from,
		To:    to,
		Value: conv.BigToHex(value),
	})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(resp.Result, &hash); err != nil {
		return "", errors.Wrap(err, "unable to decode transaction hash")
	}
	return hash, nil
}

// GetTransaction returns the transaction or ErrTransactionNotFound
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	resp, err := c.CallRPC(ctx, "eth_getTransactionByHash", hash)
	if err != nil {
		return nil, err
	}
	if resp.IsNull() {
		return nil, ErrTransactionNotFound
	}
	tx := &Transaction{}
	if err := json.Unmarshal(resp.Result, tx); err != nil {
		return nil, errors.Wrap(err, "unable to decode transaction")
	}
	return tx, nil
}

// GetTransactionReceipt returns the receipt or ErrReceiptPending when the transaction is not mined yet
func (c *Client) GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	resp, err := c.CallRPC(ctx, "eth_getTransactionReceipt", hash)
	if err != nil {
		return nil, err
	}
	if resp.IsNull() {
		return nil, ErrReceiptPending
	}
	receipt := &Receipt{}
	if err := json.Unmarshal(resp.Result, receipt); err != nil {
		return nil, errors.Wrap(err, "unable to decode receipt")
	}
	return receipt, nil
}

// GetBlockTime returns the timestamp of a mined block given its 0x prefixed number
func (c *Client) GetBlockTime(ctx context.Context, blockNumber string) (time.Time, error) {
	resp, err := c.CallRPC(ctx, "eth_getBlockByNumber", blockNumber, false)
	if err != nil {
		return time.Time{}, err
	}
	if resp.IsNull() {
		return time.Time{}, ErrBlockNotFound
	}
	header := &BlockHeader{}
	if err := json.Unmarshal(resp.Result, header); err != nil {
		return time.Time{}, errors.Wrap(err, "unable to decode block")
	}
	seconds, ok := conv.HexToBig(header.Timestamp)
	if !ok || !seconds.IsInt64() {
		return time.Time{}, fmt.Errorf("invalid block timestamp %q", header.Timestamp)
	}
	return time.Unix(seconds.Int64(), 0).UTC(), nil
}

// WaitForReceipt polls for the receipt with exponential backoff until it is available
// or the context is cancelled. There is no upper bound on the wait.
func (c *Client) WaitForReceipt(ctx context.Context, hash string, initial, max time.Duration) (*Receipt, error) {
	bo := backoff.NewExponentialBackOff()
	if initial > 0 {
		bo.InitialInterval = initial
	}
	if max > 0 {
		bo.MaxInterval = max
	}
	bo.MaxElapsedTime = 0

	var receipt *Receipt
	operation := func() error {
		r, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		receipt = r
		return nil
	}
	notify := func(err error, next time.Duration) {
		if err == ErrReceiptPending {
			return
		}
		log.Warn().Err(err).Str("section", "chain").Str("tx_hash", hash).Dur("retry_in", next).Msg("Unable to get transaction receipt")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return receipt, nil
}
