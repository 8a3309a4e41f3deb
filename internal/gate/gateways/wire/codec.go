// Package wire translates between the native-messaging wire format and the
// engine's typed command surface. Frames are a uint32 little-endian length
// prefix followed by a JSON envelope; the string-tagged envelope is mapped
// to a closed command variant exactly once, at this boundary.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/haukened/focusgate/internal/gate/domain"
	"github.com/haukened/focusgate/internal/gate/services/engine"
)

// maxFrameSize bounds incoming frames. Native messaging hosts accept far
// less; this is a sanity guard against corrupt length prefixes.
const maxFrameSize = 8 << 20

// Command type tags on the wire.
const (
	TypeGetState         = "GET_STATE"
	TypeAddTarget        = "ADD_TARGET"
	TypeUpdateTarget     = "UPDATE_TARGET"
	TypeToggleTarget     = "TOGGLE_TARGET"
	TypeRemoveTarget     = "REMOVE_TARGET"
	TypeUnlockTarget     = "UNLOCK_TARGET"
	TypeIncrementBlocked = "INCREMENT_BLOCKED_COUNTER"
	TypeForeground       = "FOREGROUND_CHANGED"
	TypeCheckBlocked     = "CHECK_BLOCKED"
	TypeDescribeTarget   = "DESCRIBE_TARGET"
	TypeStartSession     = "START_SESSION"
	TypeTickSession      = "TICK_SESSION"
	TypeSubmitAnswer     = "SUBMIT_ANSWER"
	TypeCompleteUnlock   = "COMPLETE_UNLOCK"
)

// envelope is the superset of fields any command may carry.
type envelope struct {
	Type            string `json:"type"`
	ID              string `json:"id,omitempty"`
	Identifier      string `json:"identifier,omitempty"`
	Mode            string `json:"mode,omitempty"`
	WaitSeconds     int    `json:"wait_seconds,omitempty"`
	ChallengeKind   string `json:"challenge_kind,omitempty"`
	ApproverContact string `json:"approver_contact,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	URL             string `json:"url,omitempty"`
	TimestampMs     int64  `json:"timestamp_ms,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	Answer          string `json:"answer,omitempty"`
}

// response is the wire shape of every reply.
type response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Codec encodes and decodes native-messaging payloads.
type Codec interface {
	DecodeCommand(payload []byte) (engine.Command, error)
	EncodeResponse(data any, dispatchErr error) ([]byte, error)
}

// nativeCodec implements Codec for the JSON envelope format.
type nativeCodec struct{}

// NewNativeCodec returns the JSON envelope codec.
func NewNativeCodec() Codec {
	return &nativeCodec{}
}

// DecodeCommand maps a JSON envelope onto its closed command variant.
func (c *nativeCodec) DecodeCommand(payload []byte) (engine.Command, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("malformed command payload: %w", err)
	}

	switch env.Type {
	case TypeGetState:
		return engine.GetState{}, nil
	case TypeAddTarget:
		mode, waitSeconds, kind, err := modeParams(env)
		if err != nil {
			return nil, err
		}
		return engine.AddTarget{
			Identifier:      env.Identifier,
			Mode:            mode,
			WaitSeconds:     waitSeconds,
			ChallengeKind:   kind,
			ApproverContact: env.ApproverContact,
		}, nil
	case TypeUpdateTarget:
		mode, waitSeconds, kind, err := modeParams(env)
		if err != nil {
			return nil, err
		}
		return engine.UpdateTarget{
			ID:              env.ID,
			Mode:            mode,
			WaitSeconds:     waitSeconds,
			ChallengeKind:   kind,
			ApproverContact: env.ApproverContact,
		}, nil
	case TypeToggleTarget:
		return engine.ToggleTarget{ID: env.ID}, nil
	case TypeRemoveTarget:
		return engine.RemoveTarget{ID: env.ID}, nil
	case TypeUnlockTarget:
		return engine.UnlockTarget{Identifier: env.Identifier, DurationSeconds: env.DurationSeconds}, nil
	case TypeIncrementBlocked:
		return engine.IncrementBlocked{}, nil
	case TypeForeground:
		return engine.ForegroundChanged{Raw: env.URL, TimestampMs: env.TimestampMs}, nil
	case TypeCheckBlocked:
		return engine.CheckBlocked{Raw: env.URL}, nil
	case TypeDescribeTarget:
		return engine.DescribeTarget{Identifier: env.Identifier}, nil
	case TypeStartSession:
		return engine.StartSession{Identifier: env.Identifier}, nil
	case TypeTickSession:
		return engine.TickSession{SessionID: env.SessionID}, nil
	case TypeSubmitAnswer:
		return engine.SubmitAnswer{SessionID: env.SessionID, Answer: env.Answer}, nil
	case TypeCompleteUnlock:
		return engine.CompleteUnlock{SessionID: env.SessionID}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", env.Type)
	}
}

// modeParams resolves the envelope's mode and mode-specific parameters.
// An omitted challenge kind defaults to arithmetic, matching the UI's
// default when adding a challenge target.
func modeParams(env envelope) (domain.Mode, int, domain.ChallengeKind, error) {
	mode, err := domain.ParseMode(env.Mode)
	if err != nil {
		return 0, 0, 0, err
	}
	kind := domain.ChallengeArithmetic
	if env.ChallengeKind != "" {
		kind, err = domain.ParseChallengeKind(env.ChallengeKind)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	return mode, env.WaitSeconds, kind, nil
}

// EncodeResponse renders a dispatch result as a reply payload.
func (c *nativeCodec) EncodeResponse(data any, dispatchErr error) ([]byte, error) {
	resp := response{OK: dispatchErr == nil, Data: data}
	if dispatchErr != nil {
		resp.Error = dispatchErr.Error()
	}
	return json.Marshal(resp)
}

// ReadFrame reads one length-prefixed payload from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("invalid frame size %d", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed payload to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
