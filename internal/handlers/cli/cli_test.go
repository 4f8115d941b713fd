package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type launcherMock struct {
	mock.Mock
}

func (l *launcherMock) Launch(ctx context.Context, opts RunOptions) error {
	return l.Called(ctx, opts).Error(0)
}

func newLauncherMock(t *testing.T) *launcherMock {
	l := new(launcherMock)
	l.Test(t)

	t.Cleanup(func() { l.AssertExpectations(t) })
	return l
}

func runApp(t *testing.T, l Launcher, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp(l)
	app.Writer = &out

	err := app.Run(t.Context(), append([]string{"poolhistory"}, args...))
	return out.String(), err
}

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	os.Args = []string{"poolhistory", "--help"}

	assert.NoError(t, Run(t.Context(), newLauncherMock(t)))
}

func TestNewApp(t *testing.T) {
	app := newApp(newLauncherMock(t))

	assert.Equal(t, "poolhistory", app.Name)
	require.Len(t, app.Commands, 1)
	assert.Equal(t, "start", app.Commands[0].Name)
}

func TestStartCommand(t *testing.T) {
	t.Run("launches the pipeline with the parsed flags", func(t *testing.T) {
		l := newLauncherMock(t)
		l.On("Launch", mock.Anything, RunOptions{
			RPCURL:        "ws://localhost:8546",
			LookupURL:     "http://localhost:8545",
			ShowOldTxs:    true,
			QueueCapacity: 16,
		}).Return(nil).Once()

		out, err := runApp(t, l, "start",
			"--rpc-url", "ws://localhost:8546",
			"--lookup-url", "http://localhost:8545",
			"--show-old-txs",
			"--queue-capacity", "16",
		)

		require.NoError(t, err)
		assert.Contains(t, out, "Thanks for using poolhistory")
		assert.Contains(t, out, "ws://localhost:8546")
	})

	t.Run("applies defaults and short aliases", func(t *testing.T) {
		l := newLauncherMock(t)
		l.On("Launch", mock.Anything, RunOptions{
			RPCURL:        "wss://node.example.org",
			ShowOldTxs:    true,
			QueueCapacity: mempool.DefaultQueueCapacity,
		}).Return(nil).Once()

		_, err := runApp(t, l, "start", "-r", "wss://node.example.org", "-s")
		require.NoError(t, err)
	})

	t.Run("reads the node url from ETH_RPC_URL", func(t *testing.T) {
		t.Setenv("ETH_RPC_URL", "wss://env.example.org")

		l := newLauncherMock(t)
		l.On("Launch", mock.Anything, mock.MatchedBy(func(opts RunOptions) bool {
			return opts.RPCURL == "wss://env.example.org" && !opts.ShowOldTxs
		})).Return(nil).Once()

		_, err := runApp(t, l, "start")
		require.NoError(t, err)
	})

	t.Run("requires a node url", func(t *testing.T) {
		t.Setenv("ETH_RPC_URL", "")
		os.Unsetenv("ETH_RPC_URL")

		_, err := runApp(t, newLauncherMock(t), "start")
		assert.Error(t, err)
	})

	t.Run("rejects an invalid node url", func(t *testing.T) {
		_, err := runApp(t, newLauncherMock(t), "start", "--rpc-url", "ftp://localhost:8546")
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("rejects an http node url", func(t *testing.T) {
		_, err := runApp(t, newLauncherMock(t), "start", "--rpc-url", "http://localhost:8545")
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("accepts an http lookup url", func(t *testing.T) {
		l := newLauncherMock(t)
		l.On("Launch", mock.Anything, mock.MatchedBy(func(opts RunOptions) bool {
			return opts.LookupURL == "https://rpc.example.org"
		})).Return(nil).Once()

		_, err := runApp(t, l, "start", "--rpc-url", "wss://node.example.org", "--lookup-url", "https://rpc.example.org")
		require.NoError(t, err)
	})

	t.Run("rejects a non positive queue capacity", func(t *testing.T) {
		_, err := runApp(t, newLauncherMock(t), "start", "--rpc-url", "ws://localhost:8546", "--queue-capacity", "0")
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
	})

	t.Run("returns the launcher error", func(t *testing.T) {
		expected := errors.New("dial tcp: connection refused")

		l := newLauncherMock(t)
		l.On("Launch", mock.Anything, mock.Anything).Return(expected).Once()

		_, err := runApp(t, l, "start", "--rpc-url", "ws://localhost:8546")
		assert.ErrorIs(t, err, expected)
	})
}
