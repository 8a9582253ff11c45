package api

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/service"
)

type UserHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth, validate: validator.New()}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	user, err := h.auth.GetProfile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		slog.ErrorContext(c.UserContext(), "failed to load profile", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load profile"})
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"name":      user.FullName(),
		"team":      user.Team,
	})
}

type UpdateNameRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

func (h *UserHandler) UpdateName(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req UpdateNameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.auth.UpdateName(c.UserContext(), userID, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		slog.ErrorContext(c.UserContext(), "failed to update name", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update name"})
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"name":      user.FullName(),
	})
}

func (h *UserHandler) ListWhitelist(c *fiber.Ctx) error {
	rows, err := h.auth.ListWhitelist(c.UserContext())
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to list whitelist", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list whitelist"})
	}
	return c.JSON(fiber.Map{"whitelist": rows})
}

type WhitelistRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *UserHandler) AddToWhitelist(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req WhitelistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.auth.AddToWhitelist(c.UserContext(), req.Email, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidDomain):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		default:
			slog.ErrorContext(c.UserContext(), "failed to add to whitelist", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to add to whitelist"})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "email whitelisted"})
}

func (h *UserHandler) RemoveFromWhitelist(c *fiber.Ctx) error {
	var req WhitelistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.auth.RemoveFromWhitelist(c.UserContext(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrWhitelistInUse):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "email not on whitelist"})
		default:
			slog.ErrorContext(c.UserContext(), "failed to remove from whitelist", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove from whitelist"})
		}
	}
	return c.JSON(fiber.Map{"message": "email removed from whitelist"})
}
