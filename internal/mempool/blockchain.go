package mempool

import (
	"context"
	"errors"
)

// ErrTransactionNotFound is returned by a TransactionFetcher when the node does
// not know the transaction yet. It is an expected outcome: nodes announce
// pending hashes before the body can be queried.
var ErrTransactionNotFound = errors.New("transaction not found")

// HashEvent is an item of the pending hash subscription. Exactly one of Hash
// or Err is set.
type HashEvent struct {
	Hash string // announced transaction hash
	Err  error  // subscription failure; the stream ends after it
}

// PendingHashSource streams the hashes of transactions entering a node's mempool.
type PendingHashSource interface {
	// SubscribePendingHashes opens the subscription. The returned channel is
	// closed when the subscription ends or ctx is canceled. A failure while
	// streaming is delivered as a HashEvent carrying Err.
	SubscribePendingHashes(ctx context.Context) (<-chan HashEvent, error)
}

// TransactionFetcher looks up transaction bodies by hash.
type TransactionFetcher interface {
	// FetchTransaction returns the transaction identified by hash, or
	// ErrTransactionNotFound when the node has no record of it. Any other
	// error is a transport failure.
	FetchTransaction(ctx context.Context, hash string) (Transaction, error)
}

// TransactionNotifier receives the resolved transactions surfaced by the pipeline.
type TransactionNotifier interface {
	NotifyTransaction(ctx context.Context, tx TimedTransaction) error
}
