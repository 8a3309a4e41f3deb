// Package transport carries framed commands between the host platform and
// the engine. The stdio transport speaks the native-messaging framing over
// an arbitrary reader/writer pair, which in production is the process's
// stdin/stdout and in tests an in-memory pipe.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/gateways/wire"
	"github.com/haukened/focusgate/internal/gate/services/engine"
)

// CommandHandler processes a decoded command and returns its payload.
// The transport handles all framing concerns; the handler only sees
// typed commands.
type CommandHandler interface {
	Dispatch(ctx context.Context, cmd engine.Command) (any, error)
}

// StdioTransport reads command frames from in and writes reply frames to
// out, one reply per command, in order.
type StdioTransport struct {
	in     io.Reader
	out    io.Writer
	codec  wire.Codec
	logger log.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewStdioTransport creates a transport over the given reader/writer pair.
func NewStdioTransport(in io.Reader, out io.Writer, codec wire.Codec, logger log.Logger) *StdioTransport {
	return &StdioTransport{
		in:     in,
		out:    out,
		codec:  codec,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins the read-dispatch-reply loop. It returns immediately; the
// loop runs until the input closes or ctx is cancelled.
func (t *StdioTransport) Start(ctx context.Context, handler CommandHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("stdio transport already running")
	}
	t.running = true

	go t.loop(ctx, handler)
	return nil
}

// Done is closed when the read loop has exited.
func (t *StdioTransport) Done() <-chan struct{} {
	return t.done
}

func (t *StdioTransport) loop(ctx context.Context, handler CommandHandler) {
	defer close(t.done)

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := wire.ReadFrame(t.in)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.logger.Error(map[string]any{"error": err}, "Frame read failed, closing transport")
			}
			return
		}

		cmd, err := t.codec.DecodeCommand(payload)
		if err != nil {
			t.reply(nil, err)
			continue
		}

		data, err := handler.Dispatch(ctx, cmd)
		t.reply(data, err)
	}
}

func (t *StdioTransport) reply(data any, dispatchErr error) {
	payload, err := t.codec.EncodeResponse(data, dispatchErr)
	if err != nil {
		t.logger.Error(map[string]any{"error": err}, "Response encode failed")
		return
	}
	if err := wire.WriteFrame(t.out, payload); err != nil {
		t.logger.Error(map[string]any{"error": err}, "Frame write failed")
	}
}
