package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultguard/backend/internal/auth"
	"github.com/vaultguard/backend/internal/config"
	"github.com/vaultguard/backend/internal/http/dto"
	"github.com/vaultguard/backend/internal/services"
	"github.com/vaultguard/backend/internal/wallet"
	"go.uber.org/zap"
)

// SessionHandler exposes the process-wide wallet session: connect,
// disconnect, status and balance.
type SessionHandler struct {
	session       *wallet.Session
	signer        *wallet.LocalSigner
	friendService *services.FriendService
	cfg           *config.Config
	log           *zap.Logger
}

func NewSessionHandler(session *wallet.Session, signer *wallet.LocalSigner, friendService *services.FriendService, cfg *config.Config, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session:       session,
		signer:        signer,
		friendService: friendService,
		cfg:           cfg,
		log:           log,
	}
}

// Connect authorizes the wallet and issues a session token.
// POST /session/connect
func (h *SessionHandler) Connect(c *fiber.Ctx) error {
	addr, err := h.session.Connect(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrProviderUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Fail("Wallet provider is not available. Check signer configuration."))
		case errors.Is(err, wallet.ErrUserRejected):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Connection request was rejected."))
		default:
			h.log.Error("wallet connect failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to connect to wallet."))
		}
	}

	// Registration already ran best-effort inside Connect; this second pass
	// is idempotent and only fetches the user id for the token.
	resp := dto.SessionResponse{Address: addr, Connected: true}
	user, _, err := h.friendService.RegisterUser(c.Context(), addr)
	if err != nil {
		h.log.Warn("user directory unavailable, session token withheld", zap.Error(err))
		return c.JSON(dto.OK("Wallet connected, user directory unavailable", resp))
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, addr, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to issue session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Failed to issue session token."))
	}
	resp.Token = token

	return c.JSON(dto.OK("Wallet connected successfully", resp))
}

// Disconnect clears the wallet session. Always succeeds.
// DELETE /session
func (h *SessionHandler) Disconnect(c *fiber.Ctx) error {
	h.session.Disconnect(c.Context())
	return c.JSON(dto.OK("Wallet disconnected", nil))
}

// Status reports the current signer identity.
// GET /session
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	return c.JSON(dto.OK("Session status", dto.SessionResponse{
		Address:   h.session.Account(),
		Connected: h.session.IsConnected(),
	}))
}

// Balance returns the connected account's native-token balance.
// GET /session/balance
func (h *SessionHandler) Balance(c *fiber.Ctx) error {
	if h.signer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Fail("Wallet provider is not available."))
	}
	if !h.session.IsConnected() {
		return c.Status(fiber.StatusConflict).JSON(dto.Fail("Wallet is not connected."))
	}

	addr := h.session.Account()
	bal, err := h.signer.Balance(c.Context(), addr)
	if err != nil {
		h.log.Error("balance query failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.Fail("Failed to fetch balance."))
	}

	return c.JSON(dto.OK("Balance fetched", dto.BalanceResponse{
		Address:    addr,
		BalanceWei: bal.String(),
	}))
}
