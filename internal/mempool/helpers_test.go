package mempool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gabapcia/poolhistory/internal/pkg/resilience/retry"

	"github.com/stretchr/testify/require"
)

var (
	baseTime     = time.Date(2025, time.March, 14, 15, 9, 26, 0, time.UTC)
	errTransport = errors.New("connection reset by peer")
)

// stepClock advances by step every time elapsed time is read.
type stepClock struct {
	mu      sync.Mutex
	start   time.Time
	step    time.Duration
	elapsed time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{start: baseTime, step: step}
}

func (c *stepClock) Now() time.Time {
	return c.start
}

func (c *stepClock) Since(time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.elapsed += c.step
	return c.elapsed
}

type fakeSource struct {
	events chan HashEvent
	err    error
}

func newFakeSource(buffer int) *fakeSource {
	return &fakeSource{events: make(chan HashEvent, buffer)}
}

func (f *fakeSource) SubscribePendingHashes(context.Context) (<-chan HashEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeSource) announce(hashes ...string) {
	for _, h := range hashes {
		f.events <- HashEvent{Hash: h}
	}
}

func (f *fakeSource) end() {
	close(f.events)
}

type lookupResult struct {
	tx  Transaction
	err error
}

func found(hash string) lookupResult {
	return lookupResult{tx: Transaction{Hash: hash, From: "0x00000000000000000000000000000000000000aa", Nonce: "0x1"}}
}

func foundConfirmed(hash string) lookupResult {
	r := found(hash)
	r.tx.BlockHash = "0x0000000000000000000000000000000000000000000000000000000000000b10"
	r.tx.BlockNumber = "0x10"
	return r
}

var (
	notFound     = lookupResult{err: ErrTransactionNotFound}
	lookupFailed = lookupResult{err: errTransport}
)

// fakeFetcher answers with the scripted results of each hash, repeating the
// last one once the script is exhausted. Unscripted hashes are found.
type fakeFetcher struct {
	mu      sync.Mutex
	scripts map[string][]lookupResult
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{scripts: make(map[string][]lookupResult)}
}

func (f *fakeFetcher) script(hash string, results ...lookupResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scripts[hash] = results
}

func (f *fakeFetcher) FetchTransaction(_ context.Context, hash string) (Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, hash)

	script, ok := f.scripts[hash]
	if !ok || len(script) == 0 {
		r := found(hash)
		return r.tx, r.err
	}

	if len(script) > 1 {
		f.scripts[hash] = script[1:]
	}
	return script[0].tx, script[0].err
}

func (f *fakeFetcher) allCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) callsFor(hash string) int {
	n := 0
	for _, c := range f.allCalls() {
		if c == hash {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu  sync.Mutex
	txs []TimedTransaction
}

func (r *recordingNotifier) NotifyTransaction(_ context.Context, tx TimedTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.txs = append(r.txs, tx)
	return nil
}

func (r *recordingNotifier) all() []TimedTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]TimedTransaction(nil), r.txs...)
}

func (r *recordingNotifier) hashes() []string {
	var hashes []string
	for _, tx := range r.all() {
		hashes = append(hashes, tx.Hash)
	}
	return hashes
}

func (r *recordingNotifier) byHash(hash string) (TimedTransaction, bool) {
	for _, tx := range r.all() {
		if tx.Hash == hash {
			return tx, true
		}
	}
	return TimedTransaction{}, false
}

// newTestService builds a service with a one second step clock, no in-place
// lookup retries and a recording notifier. opts are applied last.
func newTestService(t *testing.T, source PendingHashSource, fetcher TransactionFetcher, opts ...Option) (*service, *recordingNotifier) {
	t.Helper()

	rec := new(recordingNotifier)
	defaults := []Option{
		WithClock(newStepClock(time.Second)),
		WithLookupRetry(retry.WithAttempts(1)),
		WithNotifiers(rec),
	}

	svc, err := New(source, fetcher, append(defaults, opts...)...)
	require.NoError(t, err)
	return svc, rec
}
