package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabapcia/poolhistory/internal/config"
	"github.com/gabapcia/poolhistory/internal/handlers/cli"
	"github.com/gabapcia/poolhistory/internal/infra/blockchain/ethereum"
	"github.com/gabapcia/poolhistory/internal/infra/broker/kafka"
	"github.com/gabapcia/poolhistory/internal/infra/broker/redis"
	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/logger"
	"github.com/gabapcia/poolhistory/internal/pkg/resilience/retry"
	httptransport "github.com/gabapcia/poolhistory/internal/pkg/transport/http"
	"github.com/gabapcia/poolhistory/internal/pkg/transport/jsonrpc"
)

// notifier is a sink that holds a connection.
type notifier interface {
	mempool.TransactionNotifier
	io.Closer
}

// launcher wires the infrastructure described by cfg into a mempool service.
type launcher struct {
	cfg config.Config
}

var _ cli.Launcher = launcher{}

func newLauncher(cfg config.Config) launcher {
	return launcher{cfg: cfg}
}

func (l launcher) lookupRetry() []retry.Option {
	return []retry.Option{
		retry.WithAttempts(l.cfg.Lookup.Attempts),
		retry.WithDelay(l.cfg.Lookup.Delay),
		retry.WithMaxDelay(l.cfg.Lookup.MaxDelay),
	}
}

// dialRetry reports every failed attempt, not only the last one.
func (l launcher) dialRetry() retry.Retry {
	return retry.New(append(l.lookupRetry(), retry.WithLastErrorOnly(false))...)
}

func (l launcher) notifiers(ctx context.Context) ([]notifier, error) {
	var notifiers []notifier

	if l.cfg.RedisEnabled() {
		c, err := redis.NewClient(ctx, l.cfg.Redis.Addr, l.cfg.Redis.Username, l.cfg.Redis.Password, l.cfg.Redis.DB, l.cfg.Redis.Channel)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		notifiers = append(notifiers, c)
	}

	if l.cfg.KafkaEnabled() {
		p, err := kafka.NewProducer(l.cfg.Kafka.Brokers, l.cfg.Kafka.Topic)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect to kafka: %w", err), closeAll(notifiers))
		}
		notifiers = append(notifiers, p)
	}

	return notifiers, nil
}

func closeAll(notifiers []notifier) error {
	var errs []error
	for _, n := range notifiers {
		errs = append(errs, n.Close())
	}
	return errors.Join(errs...)
}

// Launch connects to the node and the configured sinks and runs the pipeline
// until ctx is done or the subscription ends.
func (l launcher) Launch(ctx context.Context, opts cli.RunOptions) error {
	conn, err := ethereum.Dial(ctx, opts.RPCURL, l.dialRetry())
	if err != nil {
		return fmt.Errorf("connect to %s: %w", opts.RPCURL, err)
	}
	defer conn.Close()

	var lookup jsonrpc.Client
	if opts.LookupURL != "" {
		lookup = jsonrpc.NewClient(opts.LookupURL, httptransport.WithTimeout(l.cfg.Lookup.HTTPTimeout))
	}
	node := ethereum.NewClient(conn, lookup)

	sinks, err := l.notifiers(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeAll(sinks); err != nil {
			logger.Warn(ctx, "failed to close notifiers", "error", err)
		}
	}()

	serviceOpts := []mempool.Option{
		mempool.WithQueueCapacity(opts.QueueCapacity),
		mempool.WithSeenCacheSize(l.cfg.Lookup.SeenCacheSize),
		mempool.WithIdleRetryInterval(l.cfg.Lookup.IdleRetryInterval),
		mempool.WithMaxNotFoundRetries(l.cfg.Lookup.MaxNotFoundRetries),
		mempool.WithMaxLookupFailures(l.cfg.Lookup.MaxFailures),
		mempool.WithLookupRetry(l.lookupRetry()...),
		mempool.WithShowConfirmed(opts.ShowOldTxs),
	}
	if len(sinks) > 0 {
		ns := make([]mempool.TransactionNotifier, 0, len(sinks))
		for _, n := range sinks {
			ns = append(ns, n)
		}
		serviceOpts = append(serviceOpts, mempool.WithNotifiers(ns...))
	}

	svc, err := mempool.New(node, node, serviceOpts...)
	if err != nil {
		return err
	}

	return svc.Run(ctx)
}
