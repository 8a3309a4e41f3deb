package domain

import (
	"strings"
	"testing"
)

func TestNewBlockTarget_Valid(t *testing.T) {
	tests := []struct {
		name            string
		mode            Mode
		waitSeconds     int
		kind            ChallengeKind
		approverContact string
	}{
		{name: "timer", mode: ModeTimer, waitSeconds: 30},
		{name: "arithmetic challenge", mode: ModeChallenge, kind: ChallengeArithmetic},
		{name: "transcription challenge", mode: ModeChallenge, kind: ChallengeTranscription},
		{name: "remote approver", mode: ModeRemoteApprover, approverContact: "+1 555 123 4567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := NewBlockTarget("1", "example.com", tt.mode, tt.waitSeconds, tt.kind, tt.approverContact)
			if err != nil {
				t.Fatalf("NewBlockTarget: %v", err)
			}
			if !target.Enabled {
				t.Error("new targets should start enabled")
			}
			if target.Mode != tt.mode {
				t.Errorf("expected mode %v, got %v", tt.mode, target.Mode)
			}
		})
	}
}

func TestNewBlockTarget_Invalid(t *testing.T) {
	tests := []struct {
		name            string
		id              string
		identifier      string
		mode            Mode
		waitSeconds     int
		kind            ChallengeKind
		approverContact string
		wantErr         string
	}{
		{name: "empty id", identifier: "example.com", mode: ModeTimer, waitSeconds: 30, wantErr: "id"},
		{name: "empty identifier", id: "1", mode: ModeTimer, waitSeconds: 30, wantErr: "identifier"},
		{name: "timer zero wait", id: "1", identifier: "example.com", mode: ModeTimer, wantErr: "waitSeconds"},
		{name: "timer negative wait", id: "1", identifier: "example.com", mode: ModeTimer, waitSeconds: -5, wantErr: "waitSeconds"},
		{name: "timer with contact", id: "1", identifier: "example.com", mode: ModeTimer, waitSeconds: 30, approverContact: "x", wantErr: "approverContact"},
		{name: "challenge with wait", id: "1", identifier: "example.com", mode: ModeChallenge, waitSeconds: 10, wantErr: "waitSeconds"},
		{name: "challenge bad kind", id: "1", identifier: "example.com", mode: ModeChallenge, kind: ChallengeKind(9), wantErr: "ChallengeKind"},
		{name: "approver no contact", id: "1", identifier: "example.com", mode: ModeRemoteApprover, wantErr: "approverContact"},
		{name: "approver with wait", id: "1", identifier: "example.com", mode: ModeRemoteApprover, waitSeconds: 5, approverContact: "x", wantErr: "waitSeconds"},
		{name: "bad mode", id: "1", identifier: "example.com", mode: Mode(9), wantErr: "Mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlockTarget(tt.id, tt.identifier, tt.mode, tt.waitSeconds, tt.kind, tt.approverContact)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestBlockTarget_Redirect(t *testing.T) {
	target, err := NewBlockTarget("1", "example.com", ModeTimer, 30, 0, "")
	if err != nil {
		t.Fatalf("NewBlockTarget: %v", err)
	}
	rd := target.Redirect()
	if rd.Identifier != "example.com" || rd.Mode != ModeTimer || rd.WaitSeconds != 30 {
		t.Errorf("unexpected descriptor: %+v", rd)
	}
}
