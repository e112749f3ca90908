package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vaultguard/backend/internal/deadline"
	"github.com/vaultguard/backend/internal/models"
	"github.com/vaultguard/backend/internal/wallet"
	"github.com/vaultguard/backend/internal/willapi"
	"go.uber.org/zap"
)

// willAPI is the slice of the external will API consumed by the flows.
type willAPI interface {
	PrepareWill(ctx context.Context, req willapi.PrepareWillRequest) (json.RawMessage, error)
	Broadcast(ctx context.Context, signedTx string) (json.RawMessage, error)
	ListWills(ctx context.Context, owner string) ([]models.Will, error)
	PreparePing(ctx context.Context, userAddress, tokenID string) (json.RawMessage, error)
}

// signerSession is the slice of wallet.Session the flows need.
type signerSession interface {
	Account() string
	IsConnected() bool
	SignTransaction(ctx context.Context, draft json.RawMessage) (string, error)
	SignAndSend(ctx context.Context, draft json.RawMessage) (wallet.PendingTx, error)
}

type CreateWillInput struct {
	Nominees        []string
	DeadlineSeconds int64
	EncryptedData   string
}

// FlowResult is the terminal outcome of a create-will flow. Callers inspect
// State/Reason instead of an error: the flow never throws past its boundary.
type FlowResult struct {
	State  string                   `json:"state"`
	Reason string                   `json:"reason,omitempty"`
	Err    error                    `json:"-"`
	Draft  *models.TransactionDraft `json:"draft,omitempty"`
	TxData json.RawMessage          `json:"txData,omitempty"`
}

func (r *FlowResult) Failed() bool { return r.State == models.FlowFailed }

// WillService runs the create-will transaction flow: prepare against the
// external service, sign through the wallet session, broadcast back. Steps
// are strictly ordered; a failed flow is restarted from idle, never resumed.
type WillService struct {
	api     willAPI
	session signerSession
	log     *zap.Logger
}

func NewWillService(api willAPI, session signerSession, log *zap.Logger) *WillService {
	return &WillService{api: api, session: session, log: log}
}

// ValidateInput is the purely local validation pass that runs before any
// network call. Nominees must number 1..3 and be non-empty names.
func ValidateInput(in CreateWillInput) error {
	if len(in.Nominees) < 1 || len(in.Nominees) > 3 {
		return fmt.Errorf("nominees must number between 1 and 3, got %d", len(in.Nominees))
	}
	for _, n := range in.Nominees {
		if strings.TrimSpace(n) == "" {
			return errors.New("nominee must not be empty")
		}
	}
	if in.DeadlineSeconds <= 0 {
		return errors.New("deadlineSeconds must be positive")
	}
	if strings.TrimSpace(in.EncryptedData) == "" {
		return errors.New("encryptedData is required")
	}
	return nil
}

// CreateWill executes prepare -> sign -> broadcast. Intermediate state is
// not persisted; an interrupted flow is simply lost and restarted.
func (s *WillService) CreateWill(ctx context.Context, in CreateWillInput) *FlowResult {
	if err := ValidateInput(in); err != nil {
		return &FlowResult{State: models.FlowFailed, Reason: err.Error(), Err: err}
	}
	if !s.session.IsConnected() {
		return s.fail(models.FlowIdle, nil, wallet.ErrNoSigner)
	}

	owner := s.session.Account()
	phase := models.FlowIdle

	// Step 1: prepare. No automatic retry; the caller resubmits from idle.
	s.advance(&phase, models.FlowPreparing)
	payload, err := s.api.PrepareWill(ctx, willapi.PrepareWillRequest{
		UserAddress:     owner,
		Nominees:        in.Nominees,
		DeadlineSeconds: in.DeadlineSeconds,
		EncryptedData:   in.EncryptedData,
	})
	if err != nil {
		return s.fail(phase, nil, err)
	}
	s.advance(&phase, models.FlowPrepared)
	draft := models.NewTransactionDraft(payload)

	// Step 2: sign. A draft that fails to sign is discarded; nonce and gas
	// may already be stale, so recovery is a re-prepare, not a re-sign.
	s.advance(&phase, models.FlowSigning)
	signed, err := s.session.SignTransaction(ctx, draft.Payload)
	if err != nil {
		draft.Advance(models.DraftFailed)
		return s.fail(phase, draft, err)
	}
	draft.Advance(models.DraftSigned)
	draft.SignedRaw = signed
	s.advance(&phase, models.FlowSigned)

	// Step 3: broadcast. Endpoint errors are surfaced verbatim. Once sent,
	// the transaction cannot be withdrawn; confirmation is observed by the
	// caller through the wallet, not driven here.
	s.advance(&phase, models.FlowBroadcasting)
	txData, err := s.api.Broadcast(ctx, signed)
	if err != nil {
		draft.Advance(models.DraftFailed)
		return s.fail(phase, draft, err)
	}
	draft.Advance(models.DraftBroadcast)
	s.advance(&phase, models.FlowBroadcast)

	s.log.Info("will transaction broadcast", zap.String("owner", owner))
	return &FlowResult{State: phase, Draft: draft, TxData: txData}
}

func (s *WillService) advance(phase *string, to string) {
	if !models.IsValidFlowTransition(*phase, to) {
		// Ordering is fixed at compile time above; reaching this means the
		// flow code itself regressed.
		s.log.Error("illegal flow transition", zap.String("from", *phase), zap.String("to", to))
	}
	*phase = to
}

func (s *WillService) fail(phase string, draft *models.TransactionDraft, err error) *FlowResult {
	if models.IsValidFlowTransition(phase, models.FlowFailed) || phase == models.FlowIdle {
		phase = models.FlowFailed
	}
	s.log.Warn("will flow failed", zap.Error(err))
	return &FlowResult{State: phase, Reason: err.Error(), Err: err, Draft: draft}
}

// WillView is a will decorated with its derived countdown state for display.
type WillView struct {
	models.Will
	Countdown deadline.Countdown `json:"countdown"`
	Status    string             `json:"status"`
}

// Will display statuses, derived from the deadline rather than stored.
const (
	WillStatusActive  = "active"
	WillStatusExpired = "expired"
)

// ListWills fetches the owner's wills and decorates each with countdown
// state evaluated at now.
func (s *WillService) ListWills(ctx context.Context, owner string, now time.Time) ([]WillView, error) {
	wills, err := s.api.ListWills(ctx, owner)
	if err != nil {
		return nil, err
	}

	views := make([]WillView, 0, len(wills))
	for _, w := range wills {
		cd := deadline.At(w.Deadline, now)
		status := WillStatusActive
		if cd.IsExpired {
			status = WillStatusExpired
		}
		views = append(views, WillView{Will: w, Countdown: cd, Status: status})
	}
	return views, nil
}
