package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vaultguard/backend/internal/http/dto"
	"github.com/vaultguard/backend/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	friendService *services.FriendService
	log           *zap.Logger
}

func NewUserHandler(friendService *services.FriendService, log *zap.Logger) *UserHandler {
	return &UserHandler{friendService: friendService, log: log}
}

// CreateUser registers a wallet address in the directory.
// POST /users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("invalid request body"))
	}

	if req.PublicAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("publicAddress is required"))
	}

	user, created, err := h.friendService.RegisterUser(c.Context(), req.PublicAddress)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAddress) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("publicAddress is not a valid wallet address format"))
		}
		h.log.Error("user registration failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
	}

	if !created {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("User already exists"))
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK("User created successfully", user))
}
