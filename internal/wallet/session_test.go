package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeProvider struct {
	mu             sync.Mutex
	accounts       []string
	requestErr     error
	silentErr      error
	requestCalls   int
	silentCalls    int
	signCalls      int
	sendCalls      int
	signErr        error
	sendErr        error
	events         chan Event
}

func newFakeProvider(accounts ...string) *fakeProvider {
	return &fakeProvider{accounts: accounts, events: make(chan Event)}
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.accounts, nil
}

func (f *fakeProvider) Accounts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silentCalls++
	if f.silentErr != nil {
		return nil, f.silentErr
	}
	return f.accounts, nil
}

func (f *fakeProvider) SignTransaction(ctx context.Context, draft json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCalls++
	if f.signErr != nil {
		return "", f.signErr
	}
	return "0xsigned", nil
}

func (f *fakeProvider) SendTransaction(ctx context.Context, draft json.RawMessage) (PendingTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return fakePendingTx{}, nil
}

func (f *fakeProvider) Events() <-chan Event { return f.events }

func (f *fakeProvider) setAccounts(accounts ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
}

type fakePendingTx struct{}

func (fakePendingTx) Hash() string                   { return "0xhash" }
func (fakePendingTx) Wait(ctx context.Context) error { return nil }

func TestConnectNoProvider(t *testing.T) {
	s := NewSession(nil, NewMemoryStateStore(), nil, zap.NewNop())

	_, err := s.Connect(context.Background())
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("want ErrProviderUnavailable, got %v", err)
	}
	if s.IsConnected() || s.Account() != "" {
		t.Error("failed connect must not mutate state")
	}
}

func TestConnectUserRejected(t *testing.T) {
	p := newFakeProvider()
	p.requestErr = ErrUserRejected
	store := NewMemoryStateStore()
	s := NewSession(p, store, nil, zap.NewNop())

	_, err := s.Connect(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Fatalf("want ErrUserRejected, got %v", err)
	}
	if s.IsConnected() {
		t.Error("rejected connect must not mutate state")
	}
	if flag, _ := store.Get(context.Background(), storeKeyConnected); flag != "" {
		t.Error("rejected connect must not persist the flag")
	}
}

func TestConnectNormalizesAndPersists(t *testing.T) {
	p := newFakeProvider("0xABCdef0123456789ABCdef0123456789ABCdef01")
	store := NewMemoryStateStore()

	registered := ""
	register := func(ctx context.Context, address string) error {
		registered = address
		return nil
	}

	s := NewSession(p, store, register, zap.NewNop())

	addr, err := s.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	want := "0xabcdef0123456789abcdef0123456789abcdef01"
	if addr != want {
		t.Errorf("address not lowercased: %q", addr)
	}
	if !s.IsConnected() || s.Account() != want {
		t.Error("session state not established")
	}
	if flag, _ := store.Get(context.Background(), storeKeyConnected); flag != "true" {
		t.Error("connected flag not persisted")
	}
	if stored, _ := store.Get(context.Background(), storeKeyAddress); stored != want {
		t.Errorf("persisted address = %q, want %q", stored, want)
	}
	if registered != want {
		t.Errorf("register side effect got %q", registered)
	}
}

func TestConnectRegistrationFailureIsNonFatal(t *testing.T) {
	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	register := func(ctx context.Context, address string) error {
		return errors.New("directory down")
	}
	s := NewSession(p, NewMemoryStateStore(), register, zap.NewNop())

	if _, err := s.Connect(context.Background()); err != nil {
		t.Fatalf("registration failure must not fail connect: %v", err)
	}
	if !s.IsConnected() {
		t.Error("session should be connected despite registration failure")
	}
}

func TestRestoreWithoutFlagDoesNothing(t *testing.T) {
	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	s := NewSession(p, NewMemoryStateStore(), nil, zap.NewNop())

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.IsConnected() {
		t.Error("restore without persisted flag must not connect")
	}
	if p.silentCalls != 0 {
		t.Error("restore without flag must not query the provider")
	}
}

func TestRestoreSilentlyReconnects(t *testing.T) {
	p := newFakeProvider("0xABC0000000000000000000000000000000000001")
	store := NewMemoryStateStore()
	_ = store.Set(context.Background(), storeKeyConnected, "true")
	_ = store.Set(context.Background(), storeKeyAddress, "0xabc0000000000000000000000000000000000001")

	s := NewSession(p, store, nil, zap.NewNop())
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !s.IsConnected() {
		t.Fatal("restore should reconnect")
	}
	if s.Account() != "0xabc0000000000000000000000000000000000001" {
		t.Errorf("restored account = %q", s.Account())
	}
	if p.requestCalls != 0 {
		t.Error("restore must not prompt")
	}
	if p.silentCalls != 1 {
		t.Errorf("silentCalls = %d, want 1", p.silentCalls)
	}
}

func TestRestoreClearsStaleFlag(t *testing.T) {
	p := newFakeProvider() // no authorized accounts anymore
	store := NewMemoryStateStore()
	_ = store.Set(context.Background(), storeKeyConnected, "true")
	_ = store.Set(context.Background(), storeKeyAddress, "0xabc0000000000000000000000000000000000001")

	s := NewSession(p, store, nil, zap.NewNop())
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("stale restore must not error: %v", err)
	}
	if s.IsConnected() {
		t.Error("stale restore must not connect")
	}
	if flag, _ := store.Get(context.Background(), storeKeyConnected); flag != "" {
		t.Error("stale flag not cleared")
	}
}

func TestDisconnectClearsEverything(t *testing.T) {
	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	store := NewMemoryStateStore()
	s := NewSession(p, store, nil, zap.NewNop())

	if _, err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Disconnect(context.Background())

	if s.IsConnected() || s.Account() != "" {
		t.Error("disconnect left session state")
	}
	if flag, _ := store.Get(context.Background(), storeKeyConnected); flag != "" {
		t.Error("disconnect left persisted flag")
	}
}

func TestSignAndSendRequiresConnection(t *testing.T) {
	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	s := NewSession(p, NewMemoryStateStore(), nil, zap.NewNop())

	if _, err := s.SignAndSend(context.Background(), json.RawMessage(`{}`)); !errors.Is(err, ErrNoSigner) {
		t.Errorf("SignAndSend disconnected: want ErrNoSigner, got %v", err)
	}
	if _, err := s.SignTransaction(context.Background(), json.RawMessage(`{}`)); !errors.Is(err, ErrNoSigner) {
		t.Errorf("SignTransaction disconnected: want ErrNoSigner, got %v", err)
	}
	if p.signCalls != 0 || p.sendCalls != 0 {
		t.Error("provider must not be reached without a session")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWatchAccountsChanged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	s := NewSession(p, NewMemoryStateStore(), nil, zap.NewNop())
	if _, err := s.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	s.Watch(ctx, nil)

	// Switch to a different account: session re-derives identity.
	next := "0xDEF0000000000000000000000000000000000002"
	p.setAccounts(next)
	p.events <- Event{Kind: EventAccountsChanged, Accounts: []string{next}}
	waitFor(t, func() bool {
		return s.Account() == "0xdef0000000000000000000000000000000000002"
	})

	// All accounts revoked: session disconnects.
	p.events <- Event{Kind: EventAccountsChanged, Accounts: nil}
	waitFor(t, func() bool { return !s.IsConnected() })
}

func TestWatchChainChangedTriggersReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newFakeProvider("0xabc0000000000000000000000000000000000001")
	s := NewSession(p, NewMemoryStateStore(), nil, zap.NewNop())
	if _, err := s.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	resetCh := make(chan struct{}, 1)
	s.Watch(ctx, func() { resetCh <- struct{}{} })

	p.events <- Event{Kind: EventChainChanged, ChainID: 1}

	select {
	case <-resetCh:
	case <-time.After(2 * time.Second):
		t.Fatal("chain change did not trigger reset")
	}
}
