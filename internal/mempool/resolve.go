package mempool

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/poolhistory/internal/pkg/logger"
)

// resolver is the resolution stage. Its retry set is only touched by the
// goroutine running it.
type resolver struct {
	svc     *service
	epoch   Epoch
	pending retrySet
}

func newResolver(svc *service, epoch Epoch) *resolver {
	return &resolver{
		svc:     svc,
		epoch:   epoch,
		pending: newRetrySet(0),
	}
}

// run consumes the relay queue until it is closed and drained or ctx is done.
// Every arrival triggers one pass; when an idle retry interval is configured a
// pass also runs after that long without arrivals.
func (r *resolver) run(ctx context.Context, queue *relayQueue) error {
	for {
		h, ok, idle := queue.Pop(ctx, r.svc.idleRetryInterval)
		if idle {
			if len(r.pending) == 0 {
				continue
			}

			if err := r.pass(ctx, nil); err != nil {
				return err
			}
			continue
		}

		if !ok {
			if len(r.pending) > 0 {
				logger.Debug(ctx, "abandoning unresolved hashes", "retry.size", len(r.pending))
			}
			return ctx.Err()
		}

		if err := r.pass(ctx, &h); err != nil {
			return err
		}
	}
}

// pass drains the retry set, looking up every entry once, then looks up the
// new arrival, if any. Whatever is still unresolved becomes the next retry set,
// so a hash is attempted at most once per pass.
func (r *resolver) pass(ctx context.Context, arrival *TimedHash) error {
	drained := r.pending
	toRetry := newRetrySet(len(drained) + 1)

	for _, entry := range drained {
		if err := r.attempt(ctx, entry, toRetry); err != nil {
			return err
		}
	}

	// a re-announced hash still in the retry set was just attempted above
	if arrival != nil && !drained.contains(arrival.Hash) {
		if err := r.attempt(ctx, retryEntry{TimedHash: *arrival}, toRetry); err != nil {
			return err
		}
	}

	r.pending = toRetry
	r.svc.metrics.retrySetSize(ctx, len(toRetry))
	return nil
}

// attempt looks entry up once. A resolved entry is emitted, an unresolved one
// is added to toRetry unless it ran out of retries. Only a transport failure
// with no failure budget configured is returned.
func (r *resolver) attempt(ctx context.Context, entry retryEntry, toRetry retrySet) error {
	// scoped to the hash; notifiers get the plain ctx
	lookupCtx := logger.Derive(ctx, "tx.hash", entry.Hash)

	tx, err := r.svc.lookup(lookupCtx, entry.Hash)
	switch {
	case err == nil:
		r.svc.emit(ctx, r.epoch, entry.TimedHash, tx)
		return nil

	case errors.Is(err, ErrTransactionNotFound):
		r.svc.metrics.lookupMissed(ctx)

		entry.misses++
		if limit := r.svc.maxNotFoundRetries; limit > 0 && entry.misses > limit {
			logger.Warn(lookupCtx, "abandoning hash after repeated not found answers",
				"tx.elapsed", entry.Elapsed,
				"retry.misses", entry.misses,
			)
			r.svc.metrics.hashAbandoned(ctx, abandonReasonNotFound)
			return nil
		}

		toRetry.add(entry)
		return nil

	case ctx.Err() != nil:
		return ctx.Err()

	default:
		r.svc.metrics.lookupFailed(ctx)

		if r.svc.maxLookupFailures == 0 {
			return fmt.Errorf("lookup transaction %s: %w", entry.Hash, err)
		}

		entry.failures++
		if entry.failures > r.svc.maxLookupFailures {
			logger.Error(lookupCtx, "abandoning hash after repeated lookup failures",
				"tx.elapsed", entry.Elapsed,
				"retry.failures", entry.failures,
				"error", err,
			)
			r.svc.metrics.hashAbandoned(ctx, abandonReasonLookupFailure)
			return nil
		}

		logger.Warn(lookupCtx, "transaction lookup failed, will retry",
			"retry.failures", entry.failures,
			"error", err,
		)
		toRetry.add(entry)
		return nil
	}
}

// lookup fetches hash, retrying transport failures in place.
func (s *service) lookup(ctx context.Context, hash string) (Transaction, error) {
	var tx Transaction
	err := s.lookupRetry.Execute(ctx, func() error {
		var err error
		tx, err = s.fetcher.FetchTransaction(ctx, hash)
		return err
	})

	return tx, err
}
