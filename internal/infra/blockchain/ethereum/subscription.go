package ethereum

import (
	"context"

	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/logger"
	"github.com/gabapcia/poolhistory/internal/pkg/x/chflow"

	"github.com/ethereum/go-ethereum/common"
)

// SubscribePendingHashes implements mempool.PendingHashSource.
//
// Hashes are forwarded as they arrive. A subscription failure (for instance a
// dropped connection or a notification queue overflow on the node side) is
// delivered as a final event carrying the error. The returned channel is closed
// when the subscription ends or ctx is canceled.
func (c *client) SubscribePendingHashes(ctx context.Context) (<-chan mempool.HashEvent, error) {
	hashes := make(chan common.Hash)

	sub, err := c.subscribe(ctx, hashes)
	if err != nil {
		return nil, err
	}

	events := make(chan mempool.HashEvent)
	go func() {
		defer close(events)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-sub.Err():
				if !ok || err == nil {
					return
				}

				logger.Error(ctx, "pending transaction subscription failed", "error", err)
				chflow.Send(ctx, events, mempool.HashEvent{Err: err})
				return
			case hash := <-hashes:
				if !chflow.Send(ctx, events, mempool.HashEvent{Hash: hash.Hex()}) {
					return
				}
			}
		}
	}()

	return events, nil
}
