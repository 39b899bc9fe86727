package chain

import (
	"fmt"
	"math/big"

	jsoniter "github.com/json-iterator/go"
	"gitlab.com/unchained-card/card_api/conv"
)

// RPCRequest is a JSON-RPC 2.0 request
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse is a JSON-RPC 2.0 response
type RPCResponse struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      int64               `json:"id"`
	Result  jsoniter.RawMessage `json:"result"`
	Error   *RPCError           `json:"error"`
}

// RPCError is the error object of a JSON-RPC response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsNull returns true when the node answered with a null result
func (r *RPCResponse) IsNull() bool {
	return len(r.Result) == 0 || string(r.Result) == "null"
}

// Transaction as returned by eth_getTransactionByHash
type Transaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"`
}

// ValueWei decodes the transferred amount
func (t *Transaction) ValueWei() *big.Int {
	v, ok := conv.HexToBig(t.Value)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// Receipt as returned by eth_getTransactionReceipt
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	From            string `json:"from"`
	To              string `json:"to"`
	GasUsed         string `json:"gasUsed"`
	Status          string `json:"status"`
}

// IsSuccessful treats a missing status as success, older nodes do not report it
func (r *Receipt) IsSuccessful() bool {
	if r == nil {
		return false
	}
	return r.Status == "" || r.Status == "0x1"
}

// BlockHeader holds the fields read from eth_getBlockByNumber
type BlockHeader struct {
	Number    string `json:"number"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
}

// IsMined returns true once the transaction is included in a block
func (t *Transaction) IsMined() bool {
	return t.BlockNumber != ""
}

// SendTxArgs are the arguments of eth_sendTransaction
type SendTxArgs struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}
