package mempool

import (
	"context"

	"github.com/gabapcia/poolhistory/internal/pkg/logger"
)

// emit stamps tx with the capture instant of h and hands it to every
// notifier. Confirmed transactions are only surfaced when showConfirmed is set.
// A notifier failure is logged and does not affect the others.
func (s *service) emit(ctx context.Context, epoch Epoch, h TimedHash, tx Transaction) {
	s.metrics.transactionResolved(ctx)

	if tx.IsConfirmed() && !s.showConfirmed {
		logger.Debug(ctx, "skipping confirmed transaction",
			"tx.hash", h.Hash,
			"tx.block_number", tx.BlockNumber,
		)
		return
	}

	timed := TimedTransaction{
		Hash:        h.Hash,
		Timestamp:   epoch.At(h.Elapsed),
		Transaction: tx,
	}

	for _, notifier := range s.notifiers {
		if err := notifier.NotifyTransaction(ctx, timed); err != nil {
			logger.Error(ctx, "failed to notify transaction",
				"tx.hash", timed.Hash,
				"error", err,
			)
		}
	}
}

// logNotifier writes every surfaced transaction to the application log.
type logNotifier struct{}

var _ TransactionNotifier = logNotifier{}

func (logNotifier) NotifyTransaction(ctx context.Context, tx TimedTransaction) error {
	logger.Info(ctx, "pending transaction observed", logFields(tx)...)
	return nil
}

func logFields(tx TimedTransaction) []any {
	fields := []any{
		"tx.hash", tx.Hash,
		"tx.timestamp", tx.Timestamp,
		"tx.from", tx.Transaction.From,
		"tx.to", tx.Transaction.To,
		"tx.nonce", tx.Transaction.Nonce,
		"tx.value", tx.Transaction.Value,
		"tx.confirmed", tx.Transaction.IsConfirmed(),
	}

	if tx.Transaction.IsConfirmed() {
		fields = append(fields, "tx.block_number", tx.Transaction.BlockNumber.Uint64())
	}

	return fields
}
