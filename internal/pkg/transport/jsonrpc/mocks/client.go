// Package mocks provides testify mocks of the jsonrpc interfaces.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/gabapcia/poolhistory/internal/pkg/transport/jsonrpc"

	"github.com/stretchr/testify/mock"
)

// Client is a mock of jsonrpc.Client.
type Client struct {
	mock.Mock
}

var _ jsonrpc.Client = (*Client)(nil)

// Fetch records the call. Expectations are matched on the context, the method
// and each parameter as separate arguments.
func (c *Client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	args := append([]any{ctx, method}, params...)
	ret := c.Called(args...)

	var data json.RawMessage
	switch v := ret.Get(0).(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	case string:
		data = json.RawMessage(v)
	}

	return data, ret.Error(1)
}

// NewClient returns a Client whose expectations are asserted when the test ends.
func NewClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *Client {
	c := new(Client)
	c.Test(t)

	t.Cleanup(func() { c.AssertExpectations(t) })
	return c
}
