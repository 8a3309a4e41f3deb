package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/haukened/focusgate/internal/gate/common/log"
	"github.com/haukened/focusgate/internal/gate/gateways/wire"
	"github.com/haukened/focusgate/internal/gate/services/engine"
)

type stubHandler struct {
	commands []engine.Command
	err      error
}

func (s *stubHandler) Dispatch(_ context.Context, cmd engine.Command) (any, error) {
	s.commands = append(s.commands, cmd)
	if s.err != nil {
		return nil, s.err
	}
	return engine.Ack{}, nil
}

type reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// run feeds the framed payloads through the transport and returns the
// decoded replies once the input is exhausted.
func run(t *testing.T, handler *stubHandler, payloads ...string) []reply {
	t.Helper()

	var in bytes.Buffer
	for _, p := range payloads {
		if err := wire.WriteFrame(&in, []byte(p)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	var out bytes.Buffer
	tr := NewStdioTransport(&in, &out, wire.NewNativeCodec(), log.NewNoopLogger())
	if err := tr.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not drain its input")
	}

	var replies []reply
	for out.Len() > 0 {
		payload, err := wire.ReadFrame(&out)
		if err != nil {
			t.Fatalf("reading reply frame: %v", err)
		}
		var r reply
		if err := json.Unmarshal(payload, &r); err != nil {
			t.Fatalf("decoding reply: %v", err)
		}
		replies = append(replies, r)
	}
	return replies
}

func TestStdioTransport_DispatchesInOrder(t *testing.T) {
	handler := &stubHandler{}
	replies := run(t, handler,
		`{"type":"GET_STATE"}`,
		`{"type":"INCREMENT_BLOCKED_COUNTER"}`,
	)

	if len(handler.commands) != 2 {
		t.Fatalf("expected 2 dispatched commands, got %d", len(handler.commands))
	}
	if _, ok := handler.commands[0].(engine.GetState); !ok {
		t.Errorf("first command = %T", handler.commands[0])
	}
	if _, ok := handler.commands[1].(engine.IncrementBlocked); !ok {
		t.Errorf("second command = %T", handler.commands[1])
	}
	if len(replies) != 2 || !replies[0].OK || !replies[1].OK {
		t.Errorf("unexpected replies: %+v", replies)
	}
}

func TestStdioTransport_DecodeErrorReplies(t *testing.T) {
	handler := &stubHandler{}
	replies := run(t, handler,
		`{"type":"NOT_A_COMMAND"}`,
		`{"type":"GET_STATE"}`,
	)

	// The malformed command gets an error reply and the loop continues.
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies))
	}
	if replies[0].OK || replies[0].Error == "" {
		t.Errorf("expected error reply, got %+v", replies[0])
	}
	if !replies[1].OK {
		t.Errorf("expected subsequent command to succeed, got %+v", replies[1])
	}
	if len(handler.commands) != 1 {
		t.Errorf("undecodable command reached the handler: %v", handler.commands)
	}
}

func TestStdioTransport_DispatchErrorReplies(t *testing.T) {
	handler := &stubHandler{err: errors.New("no such target")}
	replies := run(t, handler, `{"type":"TOGGLE_TARGET","id":"9"}`)

	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	if replies[0].OK || replies[0].Error != "no such target" {
		t.Errorf("unexpected reply: %+v", replies[0])
	}
}

func TestStdioTransport_StartTwice(t *testing.T) {
	tr := NewStdioTransport(&bytes.Buffer{}, &bytes.Buffer{}, wire.NewNativeCodec(), log.NewNoopLogger())
	if err := tr.Start(context.Background(), &stubHandler{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tr.Start(context.Background(), &stubHandler{}); err == nil {
		t.Error("expected second Start to fail")
	}
	<-tr.Done()
}
