package models

import (
	"encoding/json"
	"testing"
)

func TestIsValidFlowTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{FlowIdle, FlowPreparing, true},
		{FlowPreparing, FlowPrepared, true},
		{FlowPrepared, FlowSigning, true},
		{FlowSigning, FlowSigned, true},
		{FlowSigned, FlowBroadcasting, true},
		{FlowBroadcasting, FlowBroadcast, true},
		{FlowBroadcast, FlowConfirmed, true},

		// Failure paths
		{FlowPreparing, FlowFailed, true},
		{FlowSigning, FlowFailed, true},
		{FlowBroadcasting, FlowFailed, true},
		{FlowBroadcast, FlowFailed, true},

		// No step may be skipped or reordered
		{FlowIdle, FlowSigning, false},
		{FlowIdle, FlowBroadcasting, false},
		{FlowPrepared, FlowBroadcasting, false},
		{FlowPreparing, FlowSigned, false},
		{FlowSigned, FlowConfirmed, false},

		// Terminal states stay terminal
		{FlowFailed, FlowPreparing, false},
		{FlowFailed, FlowIdle, false},
		{FlowConfirmed, FlowFailed, false},

		{"nonexistent", FlowPreparing, false},
		{FlowIdle, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidFlowTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidFlowTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllFlowPhasesHaveTransitionEntry(t *testing.T) {
	phases := []string{
		FlowIdle, FlowPreparing, FlowPrepared, FlowSigning, FlowSigned,
		FlowBroadcasting, FlowBroadcast, FlowConfirmed, FlowFailed,
	}

	for _, phase := range phases {
		if _, ok := ValidFlowTransitions[phase]; !ok {
			t.Errorf("phase %q missing from ValidFlowTransitions map", phase)
		}
	}
}

func TestDraftSignedAtMostOnce(t *testing.T) {
	d := NewTransactionDraft(json.RawMessage(`{"to":"0x1","nonce":7}`))

	if !d.Advance(DraftSigned) {
		t.Fatal("prepared draft should be signable")
	}
	if d.Advance(DraftSigned) {
		t.Error("signed draft must not be signable again")
	}
	if !d.Advance(DraftBroadcast) {
		t.Fatal("signed draft should be broadcastable")
	}
	if d.Advance(DraftBroadcast) {
		t.Error("broadcast draft must not be broadcastable again")
	}
	if !d.Advance(DraftConfirmed) {
		t.Fatal("broadcast draft should be confirmable")
	}
	if d.Advance(DraftFailed) {
		t.Error("confirmed draft is terminal")
	}
}

func TestDraftCannotSkipSigning(t *testing.T) {
	d := NewTransactionDraft(json.RawMessage(`{}`))
	if d.Advance(DraftBroadcast) {
		t.Error("prepared draft must not be broadcast without signing")
	}
	if d.Advance(DraftConfirmed) {
		t.Error("prepared draft must not be confirmed directly")
	}
}
