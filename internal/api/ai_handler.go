package api

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/ai"
)

type AIHandler struct {
	client *ai.Client
}

func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{client: client}
}

func (h *AIHandler) available() bool {
	return h.client != nil
}

type autoFillRequest struct {
	SourceText string `json:"sourceText"`
}

func (h *AIHandler) AutoFill(c *fiber.Ctx) error {
	if !h.available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "AI assistance is not configured"})
	}

	var req autoFillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.SourceText) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sourceText is required"})
	}

	result, err := h.client.AutoFill(c.UserContext(), req.SourceText)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "auto-fill failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "auto-fill failed"})
	}
	return c.JSON(result)
}

type reformulateRequest struct {
	// Entry reformulates the whole document; the selection fields
	// reformulate a passage in place.
	Entry        string `json:"entry"`
	Before       string `json:"before"`
	SelectedText string `json:"selectedText"`
	After        string `json:"after"`
}

func (h *AIHandler) Reformulate(c *fiber.Ctx) error {
	if !h.available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "AI assistance is not configured"})
	}

	var req reformulateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.SelectedText != "" {
		result, err := h.client.ReformulateSelection(c.UserContext(), req.Before, req.SelectedText, req.After)
		if err != nil {
			slog.ErrorContext(c.UserContext(), "selection reformulation failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reformulation failed"})
		}
		return c.JSON(fiber.Map{"text": result})
	}

	if strings.TrimSpace(req.Entry) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entry or selectedText is required"})
	}
	result, err := h.client.ReformulateBriefing(c.UserContext(), req.Entry)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "reformulation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reformulation failed"})
	}
	return c.JSON(fiber.Map{"entry": result})
}

type summarizeRequest struct {
	Headline string `json:"headline"`
	Entry    string `json:"entry"`
}

func (h *AIHandler) Summarize(c *fiber.Ctx) error {
	if !h.available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "AI assistance is not configured"})
	}

	var req summarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Entry) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entry is required"})
	}

	lines, err := h.client.Summarize(c.UserContext(), req.Headline, req.Entry)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "summarization failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "summarization failed"})
	}
	return c.JSON(fiber.Map{"summary": lines})
}
