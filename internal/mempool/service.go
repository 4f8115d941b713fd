// Package mempool timestamps the pending transactions announced by a node.
//
// A run is made of two stages connected by a bounded relay queue. The capture
// stage reads the pending hash subscription and stamps every hash with the time
// elapsed since the start of the run. The resolution stage looks each hash up;
// hashes the node cannot serve yet go to a retry set that is drained once per
// new arrival. Lookup latency therefore never delays ingestion, and the
// timestamp of a transaction is always its capture instant.
package mempool

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gabapcia/poolhistory/internal/pkg/logger"
	"github.com/gabapcia/poolhistory/internal/pkg/resilience/retry"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// ErrServiceAlreadyStarted is returned if Run is called while a run is in progress.
var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	DefaultQueueCapacity     = 1024
	DefaultSeenCacheSize     = 65536
	DefaultMaxLookupFailures = 5
)

// Service runs the pending transaction pipeline.
type Service interface {
	// Run subscribes to pending hashes and resolves them until the
	// subscription ends, a fatal error occurs or ctx is canceled.
	//
	// It returns nil when the subscription ends or ctx is canceled, and the
	// first fatal error otherwise. Hashes still waiting for resolution when
	// Run returns are abandoned.
	Run(ctx context.Context) error
}

type service struct {
	mu        sync.Mutex
	isStarted bool

	source    PendingHashSource
	fetcher   TransactionFetcher
	notifiers []TransactionNotifier

	clock              Clock
	lookupRetry        retry.Retry
	queueCapacity      int
	seenCacheSize      int
	idleRetryInterval  time.Duration
	maxNotFoundRetries int
	maxLookupFailures  int
	showConfirmed      bool

	metrics *metrics
}

var _ Service = (*service)(nil)

func (s *service) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	s.isStarted = true
	return nil
}

func (s *service) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isStarted = false
}

func (s *service) Run(ctx context.Context) error {
	if err := s.start(); err != nil {
		return err
	}
	defer s.stop()

	queue, err := newRelayQueue(s.queueCapacity)
	if err != nil {
		return err
	}

	var seen *lru.Cache[string, struct{}]
	if s.seenCacheSize > 0 {
		if seen, err = lru.New[string, struct{}](s.seenCacheSize); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	epoch := StartEpoch(s.clock)
	hashes, err := s.source.SubscribePendingHashes(gctx)
	if err != nil {
		return fmt.Errorf("subscribe to pending transactions: %w", err)
	}

	logger.Info(ctx, "pending transaction pipeline started",
		"pipeline.start_time", epoch.StartTime(),
		"queue.capacity", queue.Cap(),
	)

	g.Go(func() error {
		defer queue.Close()
		return s.capture(gctx, epoch, hashes, queue, seen)
	})

	g.Go(func() error {
		defer queue.Stop()
		return newResolver(s, epoch).run(gctx, queue)
	})

	err = g.Wait()
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type config struct {
	clock              Clock
	notifiers          []TransactionNotifier
	lookupRetryOpts    []retry.Option
	queueCapacity      int
	seenCacheSize      int
	idleRetryInterval  time.Duration
	maxNotFoundRetries int
	maxLookupFailures  int
	showConfirmed      bool
	meterProvider      metric.MeterProvider
}

type Option func(*config)

// New builds the pipeline service reading hashes from source and looking them
// up with fetcher. Resolved transactions are handed to the notifiers set with
// WithNotifiers, or logged when there is none.
func New(source PendingHashSource, fetcher TransactionFetcher, opts ...Option) (*service, error) {
	cfg := config{
		clock:         SystemClock,
		queueCapacity: DefaultQueueCapacity,
		seenCacheSize: DefaultSeenCacheSize,
		lookupRetryOpts: []retry.Option{
			retry.WithAttempts(3),
			retry.WithDelay(100 * time.Millisecond),
			retry.WithMaxDelay(1 * time.Second),
		},
		maxLookupFailures: DefaultMaxLookupFailures,
		meterProvider:     otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.queueCapacity <= 0 {
		return nil, ErrInvalidQueueCapacity
	}

	if len(cfg.notifiers) == 0 {
		cfg.notifiers = []TransactionNotifier{logNotifier{}}
	}

	m, err := newMetrics(cfg.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("register mempool metrics: %w", err)
	}

	// not-found answers are handled by the retry set, never retried in place
	lookupRetryOpts := append(slices.Clone(cfg.lookupRetryOpts),
		retry.WithRetryIf(isTransientLookupError),
		retry.WithOnRetry(func(ctx context.Context, attempt uint, err error) {
			logger.Debug(ctx, "retrying transaction lookup",
				"retry.attempt", attempt+1,
				"error", err,
			)
			m.lookupRetried(ctx)
		}),
	)

	return &service{
		source:             source,
		fetcher:            fetcher,
		notifiers:          cfg.notifiers,
		clock:              cfg.clock,
		lookupRetry:        retry.New(lookupRetryOpts...),
		queueCapacity:      cfg.queueCapacity,
		seenCacheSize:      cfg.seenCacheSize,
		idleRetryInterval:  cfg.idleRetryInterval,
		maxNotFoundRetries: cfg.maxNotFoundRetries,
		maxLookupFailures:  cfg.maxLookupFailures,
		showConfirmed:      cfg.showConfirmed,
		metrics:            m,
	}, nil
}

func isTransientLookupError(err error) bool {
	return !errors.Is(err, ErrTransactionNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// WithQueueCapacity sets the capacity of the relay queue between the two stages.
// Default: 1024.
func WithQueueCapacity(n int) Option {
	return func(c *config) {
		c.queueCapacity = n
	}
}

// WithSeenCacheSize sets how many captured hashes are remembered to skip
// re-announcements. A hash announced again after it was evicted is resolved
// again. Zero disables the check. Default: 65536.
func WithSeenCacheSize(n int) Option {
	return func(c *config) {
		c.seenCacheSize = n
	}
}

// WithIdleRetryInterval makes the resolution stage drain the retry set when no
// hash arrived for d. Zero (the default) only drains on arrivals.
func WithIdleRetryInterval(d time.Duration) Option {
	return func(c *config) {
		c.idleRetryInterval = d
	}
}

// WithMaxNotFoundRetries abandons a hash after n retries answered with not
// found. Zero (the default) retries until the end of the run.
func WithMaxNotFoundRetries(n int) Option {
	return func(c *config) {
		c.maxNotFoundRetries = n
	}
}

// WithMaxLookupFailures sets how many transport failures a hash may accumulate
// in the retry set before being abandoned. Zero makes the first failure fatal.
// Default: 5.
func WithMaxLookupFailures(n int) Option {
	return func(c *config) {
		c.maxLookupFailures = n
	}
}

// WithLookupRetry configures the in-place retries of a failing lookup.
// Default: 3 attempts with a 100ms to 1s backoff.
func WithLookupRetry(opts ...retry.Option) Option {
	return func(c *config) {
		c.lookupRetryOpts = opts
	}
}

// WithShowConfirmed also surfaces transactions that were already mined when
// they were resolved.
func WithShowConfirmed(show bool) Option {
	return func(c *config) {
		c.showConfirmed = show
	}
}

// WithNotifiers sets the receivers of the resolved transactions.
func WithNotifiers(notifiers ...TransactionNotifier) Option {
	return func(c *config) {
		c.notifiers = notifiers
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithMeterProvider sets the provider of the pipeline metrics.
// Default: the global OpenTelemetry provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}
