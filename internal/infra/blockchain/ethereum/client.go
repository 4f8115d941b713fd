// Package ethereum connects the mempool pipeline to an Ethereum node: pending
// hashes come from an eth_subscribe("newPendingTransactions") subscription and
// transaction bodies from eth_getTransactionByHash.
package ethereum

import (
	"context"

	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/resilience/retry"
	"github.com/gabapcia/poolhistory/internal/pkg/transport/jsonrpc"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
)

const instrumentationName = "github.com/gabapcia/poolhistory/internal/infra/blockchain/ethereum"

var tracer = otel.Tracer(instrumentationName)

// subscription is the part of *rpc.ClientSubscription used by the client.
type subscription interface {
	Err() <-chan error
	Unsubscribe()
}

// subscribeFunc opens a pending transaction subscription delivering hashes to ch.
type subscribeFunc func(ctx context.Context, ch chan<- common.Hash) (subscription, error)

// client implements mempool.PendingHashSource and mempool.TransactionFetcher.
type client struct {
	subscribe subscribeFunc  // opens the pending hash subscription
	conn      jsonrpc.Client // used for lookups
}

var (
	_ mempool.PendingHashSource  = (*client)(nil)
	_ mempool.TransactionFetcher = (*client)(nil)
)

// NewClient builds a client subscribing through rpcConn. Lookups go through
// lookup when set, and through rpcConn otherwise.
func NewClient(rpcConn *rpc.Client, lookup jsonrpc.Client) *client {
	if lookup == nil {
		lookup = jsonrpc.NewRPCClient(rpcConn)
	}

	return &client{
		subscribe: newPendingTransactionSubscriber(rpcConn),
		conn:      lookup,
	}
}

func newPendingTransactionSubscriber(conn *rpc.Client) subscribeFunc {
	return func(ctx context.Context, ch chan<- common.Hash) (subscription, error) {
		sub, err := conn.EthSubscribe(ctx, ch, "newPendingTransactions")
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
}

// Dial connects to the node at rawURL, retrying failed attempts with r.
// Subscriptions require a websocket or IPC endpoint.
func Dial(ctx context.Context, rawURL string, r retry.Retry) (*rpc.Client, error) {
	var conn *rpc.Client
	err := r.Execute(ctx, func() error {
		var err error
		conn, err = rpc.DialContext(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	return conn, nil
}
