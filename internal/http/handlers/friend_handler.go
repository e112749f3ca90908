package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultguard/backend/internal/http/dto"
	"github.com/vaultguard/backend/internal/services"
	"go.uber.org/zap"
)

type FriendHandler struct {
	friendService *services.FriendService
	log           *zap.Logger
}

func NewFriendHandler(friendService *services.FriendService, log *zap.Logger) *FriendHandler {
	return &FriendHandler{friendService: friendService, log: log}
}

// AddFriend registers a nominee candidate for an owner.
// POST /friends
func (h *FriendHandler) AddFriend(c *fiber.Ctx) error {
	var req dto.AddFriendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid request body"))
	}

	friend, err := h.friendService.AddFriend(c.Context(), services.AddFriendInput{
		PublicAddress:       req.PublicAddress,
		FriendName:          req.FriendName,
		FriendEmail:         req.FriendEmail,
		FriendWalletAddress: req.FriendWalletAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		case errors.Is(err, services.ErrInvalidAddress):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(err.Error()))
		case errors.Is(err, services.ErrOwnerNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Owner (publicAddress) does not exist. Create user first."))
		case errors.Is(err, services.ErrDuplicateFriend):
			return c.Status(fiber.StatusConflict).JSON(dto.Fail("Friend already exists for this publicAddress"))
		default:
			h.log.Error("add friend failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK("Friend added successfully", friend))
}

// ListFriends returns all friends registered by an owner, newest first.
// GET /friends/:publicAddress
func (h *FriendHandler) ListFriends(c *fiber.Ctx) error {
	publicAddress := c.Params("publicAddress")

	friends, err := h.friendService.ListFriends(c.Context(), publicAddress)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAddress) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("publicAddress is not valid"))
		}
		h.log.Error("list friends failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
	}

	return c.JSON(dto.OK("Friends fetched successfully", fiber.Map{"friends": friends}))
}
