// Package wallet owns the signer session: who the current account is and the
// capability to sign and send transactions through a provider.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrProviderUnavailable means no wallet provider is configured or
	// reachable.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrUserRejected means the user declined authorization or signing.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrNoSigner means a signing operation was attempted without a
	// connected session.
	ErrNoSigner = errors.New("no signer available")
)

// Provider event kinds, delivered out-of-band by the provider.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

type Event struct {
	Kind     string
	Accounts []string
	ChainID  int64
}

// PendingTx is a submitted transaction whose confirmation can be awaited.
type PendingTx interface {
	Hash() string
	// Wait blocks until the transaction is confirmed or ctx expires.
	Wait(ctx context.Context) error
}

// Provider is the wallet backend: account authorization, signing, sending.
// Transaction drafts are the raw JSON payloads handed out by the external
// preparation API.
type Provider interface {
	// RequestAccounts asks for authorization, prompting if the backend
	// supports prompting. Returns ErrUserRejected on refusal.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Accounts returns already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)

	SignTransaction(ctx context.Context, draft json.RawMessage) (string, error)
	SendTransaction(ctx context.Context, draft json.RawMessage) (PendingTx, error)

	// Events delivers accountsChanged/chainChanged notifications.
	Events() <-chan Event
}

// StateStore persists the connected-flag and last-known address between
// restarts so a session can be silently restored.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
