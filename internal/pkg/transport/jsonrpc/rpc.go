package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
)

// Caller is the subset of *rpc.Client used by the adapter.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// rpcClient adapts a go-ethereum rpc connection to the Client interface so that
// lookups can share the websocket connection used for subscriptions.
type rpcClient struct {
	conn Caller
}

var _ Client = (*rpcClient)(nil)

// Fetch issues the call over the wrapped connection. Server-side errors are
// reported as ErrProviderReturnedError, like the HTTP client does.
func (c *rpcClient) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.conn.CallContext(ctx, &result, method, params...); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, providerError(rpcErr.ErrorCode(), rpcErr.Error())
		}

		return nil, err
	}

	return result, nil
}

// NewRPCClient wraps conn (usually an *rpc.Client) as a Client.
func NewRPCClient(conn Caller) *rpcClient {
	return &rpcClient{
		conn: conn,
	}
}
