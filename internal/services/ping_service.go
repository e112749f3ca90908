package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vaultguard/backend/internal/events"
	"github.com/vaultguard/backend/internal/wallet"
	"github.com/vaultguard/backend/internal/willapi"
	"go.uber.org/zap"
)

// ErrPingInFlight means a ping for the same will is still outstanding; the
// request is rejected locally without touching the server.
var ErrPingInFlight = errors.New("a ping for this will is already in flight")

type PingResult struct {
	TokenID string `json:"tokenId"`
	TxHash  string `json:"txHash"`
}

// PingService extends a will's deadline by preparing a ping transaction and
// sending it through the wallet in a single combined sign-and-send step.
type PingService struct {
	api       willAPI
	session   signerSession
	publisher events.Publisher
	log       *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewPingService(api willAPI, session signerSession, publisher events.Publisher, log *zap.Logger) *PingService {
	return &PingService{
		api:       api,
		session:   session,
		publisher: publisher,
		log:       log,
		inflight:  make(map[string]struct{}),
	}
}

// InFlight reports whether a ping for the given will is outstanding.
func (s *PingService) InFlight(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[tokenID]
	return ok
}

func (s *PingService) acquire(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[tokenID]; ok {
		return false
	}
	s.inflight[tokenID] = struct{}{}
	return true
}

func (s *PingService) release(tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, tokenID)
}

// Ping proves liveness for one will. At most one ping per will may be in
// flight; the marker is released on every exit path. Success is declared
// only after on-chain confirmation.
func (s *PingService) Ping(ctx context.Context, tokenID string) (*PingResult, error) {
	if !s.session.IsConnected() {
		return nil, wallet.ErrNoSigner
	}

	if !s.acquire(tokenID) {
		return nil, ErrPingInFlight
	}
	defer s.release(tokenID)

	account := s.session.Account()

	unsigned, err := s.api.PreparePing(ctx, account, tokenID)
	if err != nil {
		// Domain rejections (not owner, triggered, executed) arrive here
		// already categorized by the API client.
		return nil, err
	}

	pending, err := s.session.SignAndSend(ctx, unsigned)
	if err != nil {
		return nil, err
	}

	if err := pending.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping confirmation failed: %v", willapi.ErrServer, err)
	}

	s.log.Info("ping confirmed",
		zap.String("token_id", tokenID),
		zap.String("tx_hash", pending.Hash()),
	)

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, "events:will", events.Event{
			Type: events.EventPingConfirmed,
			Payload: map[string]any{
				"owner":    account,
				"token_id": tokenID,
				"tx_hash":  pending.Hash(),
			},
		})
	}

	// Deadline state is refreshed by re-fetching the will list; the
	// external API has no push channel.
	return &PingResult{TokenID: tokenID, TxHash: pending.Hash()}, nil
}
