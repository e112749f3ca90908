package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultguard/backend/internal/http/dto"
	"github.com/vaultguard/backend/internal/middleware"
	"github.com/vaultguard/backend/internal/services"
	"github.com/vaultguard/backend/internal/wallet"
	"github.com/vaultguard/backend/internal/willapi"
	"go.uber.org/zap"
)

type WillHandler struct {
	willService *services.WillService
	pingService *services.PingService
	log         *zap.Logger
}

func NewWillHandler(willService *services.WillService, pingService *services.PingService, log *zap.Logger) *WillHandler {
	return &WillHandler{willService: willService, pingService: pingService, log: log}
}

// ListWills returns the caller's wills decorated with countdown state.
// GET /wills
func (h *WillHandler) ListWills(c *fiber.Ctx) error {
	owner := middleware.GetAddress(c)

	views, err := h.willService.ListWills(c.Context(), owner, time.Now())
	if err != nil {
		h.log.Error("list wills failed", zap.String("owner", owner), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.Fail("Failed to fetch wills."))
	}

	return c.JSON(dto.OK("Wills fetched successfully", fiber.Map{"wills": views}))
}

// CreateWill runs the full prepare/sign/broadcast flow for a new will.
// POST /wills
func (h *WillHandler) CreateWill(c *fiber.Ctx) error {
	var req dto.CreateWillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid request body"))
	}

	res := h.willService.CreateWill(c.Context(), services.CreateWillInput{
		Nominees:        req.Nominees,
		DeadlineSeconds: req.DeadlineSeconds,
		EncryptedData:   req.EncryptedData,
	})
	if res.Failed() || res.Err != nil {
		status := fiber.StatusBadGateway
		switch {
		case errors.Is(res.Err, wallet.ErrNoSigner):
			status = fiber.StatusConflict
		case errors.Is(res.Err, wallet.ErrUserRejected):
			status = fiber.StatusBadRequest
		case res.Draft == nil && !errors.Is(res.Err, willapi.ErrServer):
			// Validation failed before any network call.
			status = fiber.StatusBadRequest
		}
		resp := dto.Fail(res.Reason)
		resp.Data = res
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK("Will transaction broadcast", res))
}

// Ping extends a will's deadline by proving owner liveness.
// POST /wills/:tokenId/ping
func (h *WillHandler) Ping(c *fiber.Ctx) error {
	tokenID := c.Params("tokenId")
	if tokenID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("tokenId is required"))
	}

	res, err := h.pingService.Ping(c.Context(), tokenID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPingInFlight):
			return c.Status(fiber.StatusConflict).JSON(dto.Fail("A ping for this will is already in progress."))
		case errors.Is(err, wallet.ErrNoSigner):
			return c.Status(fiber.StatusConflict).JSON(dto.Fail("Wallet is not connected."))
		case errors.Is(err, wallet.ErrUserRejected):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Transaction was cancelled."))
		case errors.Is(err, willapi.ErrNotOwner):
			return c.Status(fiber.StatusForbidden).JSON(dto.Fail("You do not own this will."))
		case errors.Is(err, willapi.ErrAlreadyTriggered):
			return c.Status(fiber.StatusConflict).JSON(dto.Fail("Cannot ping a triggered will."))
		case errors.Is(err, willapi.ErrAlreadyExecuted):
			return c.Status(fiber.StatusConflict).JSON(dto.Fail("Cannot ping an executed will."))
		default:
			h.log.Error("ping failed", zap.String("token_id", tokenID), zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(dto.Fail("Ping failed. Please try again."))
		}
	}

	return c.JSON(dto.OK("Ping confirmed", dto.PingResponse{
		TokenID: res.TokenID,
		TxHash:  res.TxHash,
		Message: "Deadline extended.",
	}))
}
