package models

import "encoding/json"

// Create-will flow phases
const (
	FlowIdle         = "idle"
	FlowPreparing    = "preparing"
	FlowPrepared     = "prepared"
	FlowSigning      = "signing"
	FlowSigned       = "signed"
	FlowBroadcasting = "broadcasting"
	FlowBroadcast    = "broadcast"
	FlowConfirmed    = "confirmed"
	FlowFailed       = "failed"
)

// Valid flow transitions: from -> []to. Failed and Confirmed are terminal;
// recovery from Failed is a fresh flow starting at idle, never a re-sign of
// a stale draft.
var ValidFlowTransitions = map[string][]string{
	FlowIdle:         {FlowPreparing},
	FlowPreparing:    {FlowPrepared, FlowFailed},
	FlowPrepared:     {FlowSigning},
	FlowSigning:      {FlowSigned, FlowFailed},
	FlowSigned:       {FlowBroadcasting},
	FlowBroadcasting: {FlowBroadcast, FlowFailed},
	FlowBroadcast:    {FlowConfirmed, FlowFailed},
	FlowConfirmed:    {},
	FlowFailed:       {},
}

func IsValidFlowTransition(from, to string) bool {
	allowed, ok := ValidFlowTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// TransactionDraft statuses. A draft is signed at most once and broadcast at
// most once; confirmation is observed on-chain, never caused here.
const (
	DraftPrepared  = "prepared"
	DraftSigned    = "signed"
	DraftBroadcast = "broadcast"
	DraftConfirmed = "confirmed"
	DraftFailed    = "failed"
)

var validDraftTransitions = map[string][]string{
	DraftPrepared:  {DraftSigned, DraftFailed},
	DraftSigned:    {DraftBroadcast, DraftFailed},
	DraftBroadcast: {DraftConfirmed, DraftFailed},
	DraftConfirmed: {},
	DraftFailed:    {},
}

// TransactionDraft is an unsigned transaction payload returned by the
// external preparation endpoint, keyed to one pending operation.
type TransactionDraft struct {
	Payload   json.RawMessage `json:"payload"`
	SignedRaw string          `json:"signedRaw,omitempty"`
	Status    string          `json:"status"`
}

func NewTransactionDraft(payload json.RawMessage) *TransactionDraft {
	return &TransactionDraft{Payload: payload, Status: DraftPrepared}
}

// Advance moves the draft to a new status, rejecting anything the draft
// lifecycle does not allow (e.g. signing twice).
func (d *TransactionDraft) Advance(to string) bool {
	allowed, ok := validDraftTransitions[d.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			d.Status = to
			return true
		}
	}
	return false
}

// Will is the external system's record of an inheritance plan. Deadline is
// the raw epoch value as returned by the API (seconds or milliseconds, see
// internal/deadline); nil when not set.
type Will struct {
	TokenID       string   `json:"tokenId"`
	ID            int      `json:"id"`
	Owner         string   `json:"owner"`
	Deadline      *int64   `json:"deadline,omitempty"`
	Nominees      []string `json:"nominees"`
	EncryptedHash string   `json:"encryptedHash"`
}
