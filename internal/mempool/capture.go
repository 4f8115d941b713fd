package mempool

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/poolhistory/internal/pkg/logger"
	"github.com/gabapcia/poolhistory/internal/pkg/x/chflow"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrSubscriptionClosed wraps the error that terminated the pending hash subscription.
var ErrSubscriptionClosed = errors.New("pending hash subscription closed")

// capture stamps every announced hash with the time elapsed since the start of
// the run and pushes it into the relay queue, blocking while the queue is full.
//
// It returns nil when the subscription ends, and an error when the
// subscription fails or the resolution stage is gone. Hashes already present
// in seen are skipped; seen may be nil.
func (s *service) capture(ctx context.Context, epoch Epoch, events <-chan HashEvent, queue *relayQueue, seen *lru.Cache[string, struct{}]) error {
	for {
		event, ok := chflow.Receive(ctx, events)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}

			logger.Info(ctx, "pending transaction subscription ended")
			return nil
		}

		if event.Err != nil {
			return fmt.Errorf("%w: %w", ErrSubscriptionClosed, event.Err)
		}

		h := TimedHash{
			Hash:    event.Hash,
			Elapsed: epoch.Elapsed(),
		}

		// only hashes still cached are skipped; an evicted hash is captured again
		if seen != nil {
			if found, _ := seen.ContainsOrAdd(h.Hash, struct{}{}); found {
				logger.Debug(ctx, "skipping re-announced hash", "tx.hash", h.Hash)
				continue
			}
		}

		if err := queue.Push(ctx, h); err != nil {
			return err
		}

		s.metrics.hashCaptured(ctx)
	}
}
