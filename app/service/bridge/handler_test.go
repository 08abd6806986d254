package bridge

import (
	"context"
	"testing"
	"time"

	"videoadguard/app/api"

	"github.com/stretchr/testify/require"
)

// On disconnect the writer may return to its select long after teardown. A
// closed write channel must make it exit instead of handing a zero-value
// message to GetId.
func TestWriterExitsOnClosedChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler := &ConnectionHandler{ //nolint:exhaustruct
		writeChan: make(chan api.IdMessage, 16),
		ctx:       ctx,
		cancel:    cancel,
	}

	// the context stays live, so the only ready select case is the closed
	// channel receive
	close(handler.writeChan)

	done := make(chan struct{})
	go func() {
		handler.writerLoop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "writer did not stop after channel close")
	}
}

func TestWriterExitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &ConnectionHandler{ //nolint:exhaustruct
		writeChan: make(chan api.IdMessage, 16),
		ctx:       ctx,
		cancel:    cancel,
	}

	done := make(chan struct{})
	go func() {
		handler.writerLoop()
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "writer did not stop after cancellation")
	}
}
