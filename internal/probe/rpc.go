package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

const methodBlockNumber = "eth_blockNumber"

var (
	// ErrEmptyResult is returned when a response carries neither result nor error.
	ErrEmptyResult = errors.New("json-rpc response has no result")

	// ErrBadQuantity is returned when a hex quantity cannot be decoded.
	ErrBadQuantity = errors.New("malformed hex quantity")
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func newRequest(method string) rpcRequest {
	return rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: []any{}}
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC error object returned by the endpoint.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

// decodeResponse parses a JSON-RPC response envelope and returns its result.
func decodeResponse(r io.Reader) ([]byte, error) {
	var resp rpcResponse
	if err := json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, ErrEmptyResult
	}
	return resp.Result, nil
}

// decodeResult interprets the result of method. Only eth_blockNumber carries
// a value we keep; any other non-null result is accepted as is.
func decodeResult(method string, result []byte) (uint64, error) {
	if method != methodBlockNumber {
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(result, &s); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBadQuantity, result)
	}
	return parseQuantity(s)
}

// parseQuantity decodes a 0x-prefixed hex quantity such as "0x10d4f".
func parseQuantity(s string) (uint64, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrBadQuantity, s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadQuantity, s)
	}
	return v, nil
}
