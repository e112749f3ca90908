package wallet

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// StateStore keys, mirroring the connected-flag and last-known address the
// web client kept in local storage.
const (
	storeKeyConnected = "walletConnected"
	storeKeyAddress   = "walletAddress"
)

// RegisterFunc registers the connected address with the user directory.
// Called best-effort after every successful connect; failures are logged and
// never fail the connection.
type RegisterFunc func(ctx context.Context, address string) error

// Session is the single source of truth for the current signer identity.
// All writes go through Connect/Disconnect/Restore and the event watcher;
// reads are safe from any goroutine.
type Session struct {
	provider Provider
	store    StateStore
	register RegisterFunc
	log      *zap.Logger

	mu        sync.RWMutex
	account   string
	connected bool
}

func NewSession(provider Provider, store StateStore, register RegisterFunc, log *zap.Logger) *Session {
	return &Session{
		provider: provider,
		store:    store,
		register: register,
		log:      log,
	}
}

func (s *Session) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Connect requests account authorization from the provider. On success the
// address is normalized to lowercase, the restoration flag is persisted and
// the user directory registration runs best-effort. On rejection no state
// changes.
func (s *Session) Connect(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", ErrProviderUnavailable
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrUserRejected
	}

	addr := strings.ToLower(accounts[0])

	s.mu.Lock()
	s.account = addr
	s.connected = true
	s.mu.Unlock()

	if err := s.store.Set(ctx, storeKeyConnected, "true"); err != nil {
		s.log.Warn("failed to persist connected flag", zap.Error(err))
	}
	if err := s.store.Set(ctx, storeKeyAddress, addr); err != nil {
		s.log.Warn("failed to persist wallet address", zap.Error(err))
	}

	if s.register != nil {
		if err := s.register(ctx, addr); err != nil {
			s.log.Warn("user registration failed, connection kept",
				zap.String("address", addr), zap.Error(err))
		}
	}

	s.log.Info("wallet connected", zap.String("address", addr))
	return addr, nil
}

// Disconnect clears in-memory state and the persisted restoration flag.
// Always succeeds.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	s.account = ""
	s.connected = false
	s.mu.Unlock()

	if err := s.store.Delete(ctx, storeKeyConnected, storeKeyAddress); err != nil {
		s.log.Warn("failed to clear persisted session", zap.Error(err))
	}

	s.log.Info("wallet disconnected")
}

// Restore silently re-establishes a previously persisted session at startup.
// If the provider no longer reports any authorized account, the stale flag is
// cleared instead of surfacing an error.
func (s *Session) Restore(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}

	flag, err := s.store.Get(ctx, storeKeyConnected)
	if err != nil {
		return err
	}
	if flag != "true" {
		return nil
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		if err != nil {
			s.log.Warn("session restore failed, clearing stale flag", zap.Error(err))
		}
		if derr := s.store.Delete(ctx, storeKeyConnected, storeKeyAddress); derr != nil {
			s.log.Warn("failed to clear stale session", zap.Error(derr))
		}
		return nil
	}

	addr := strings.ToLower(accounts[0])

	s.mu.Lock()
	s.account = addr
	s.connected = true
	s.mu.Unlock()

	if s.register != nil {
		if err := s.register(ctx, addr); err != nil {
			s.log.Warn("user registration failed on restore", zap.String("address", addr), zap.Error(err))
		}
	}

	s.log.Info("wallet session restored", zap.String("address", addr))
	return nil
}

// SignTransaction signs a prepared draft without sending it.
func (s *Session) SignTransaction(ctx context.Context, draft json.RawMessage) (string, error) {
	if !s.IsConnected() {
		return "", ErrNoSigner
	}
	return s.provider.SignTransaction(ctx, draft)
}

// SignAndSend signs and submits a prepared draft in one step, returning a
// handle whose confirmation can be awaited.
func (s *Session) SignAndSend(ctx context.Context, draft json.RawMessage) (PendingTx, error) {
	if !s.IsConnected() {
		return nil, ErrNoSigner
	}
	return s.provider.SendTransaction(ctx, draft)
}

// Watch consumes provider notifications until ctx is done. A zero-account
// change disconnects; a different account re-derives the signer identity via
// Connect; a chain change invalidates all in-flight assumptions and invokes
// onReset as a hard reset.
func (s *Session) Watch(ctx context.Context, onReset func()) {
	if s.provider == nil {
		return
	}

	go func() {
		events := s.provider.Events()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.handleEvent(ctx, ev, onReset)
			}
		}
	}()
}

func (s *Session) handleEvent(ctx context.Context, ev Event, onReset func()) {
	switch ev.Kind {
	case EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			s.Disconnect(ctx)
			return
		}
		if strings.ToLower(ev.Accounts[0]) != s.Account() {
			if _, err := s.Connect(ctx); err != nil {
				s.log.Warn("reconnect after account change failed", zap.Error(err))
			}
		}
	case EventChainChanged:
		s.log.Info("chain changed, resetting application state", zap.Int64("chain_id", ev.ChainID))
		if onReset != nil {
			onReset()
		}
	}
}
