// Package chflow provides context-aware helpers for receiving from and
// sending to Go channels. It helps ensure that operations respect
// cancellation and deadlines via context.Context.
package chflow

import (
	"context"
	"time"
)

// Receive waits to receive a value from the provided channel or for the context to be canceled.
// It returns the value (zero value if canceled) and a boolean indicating if the receive was successful.
func Receive[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var data T
	select {
	case <-ctx.Done():
		return data, false
	case data, ok := <-ch:
		return data, ok
	}
}

// ReceiveTimeout behaves like Receive but gives up after d.
//
// The second result reports whether a value was received, the third whether the
// wait ended because d elapsed. A non-positive d waits without a deadline.
func ReceiveTimeout[T any](ctx context.Context, ch <-chan T, d time.Duration) (T, bool, bool) {
	if d <= 0 {
		data, ok := Receive(ctx, ch)
		return data, ok, false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	var data T
	select {
	case <-ctx.Done():
		return data, false, false
	case <-timer.C:
		return data, false, true
	case data, ok := <-ch:
		return data, ok, false
	}
}

// Send attempts to send a value to the provided channel unless the context is canceled first.
// It returns true if the send was successful, false if the context was done before sent.
func Send[T any](ctx context.Context, ch chan<- T, data T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- data:
		return true
	}
}

// SendUntil is Send with an extra stop signal: it gives up when done is closed,
// which lets a producer notice that the consumer on the other side has exited
// instead of blocking forever on a full channel.
func SendUntil[T any](ctx context.Context, ch chan<- T, data T, done <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case <-done:
		return false
	case ch <- data:
		return true
	}
}
