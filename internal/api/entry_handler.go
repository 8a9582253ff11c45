package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/service"
)

type EntryHandler struct {
	entries *service.EntryService
}

func NewEntryHandler(entries *service.EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func (h *EntryHandler) List(c *fiber.Ctx) error {
	var filters repository.EntryFilters
	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		filters.Date = &date
	}
	filters.Status = c.Query("status")
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid author id"})
		}
		filters.Author = &authorID
	}

	entries, err := h.entries.List(c.UserContext(), filters)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to list entries", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list entries"})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

type createEntryRequest struct {
	Category   string                `json:"category"`
	Priority   string                `json:"priority"`
	Region     string                `json:"region"`
	Country    model.CountryList     `json:"country"`
	Headline   string                `json:"headline"`
	Date       string                `json:"date"`
	Entry      string                `json:"entry"`
	SourceName *string               `json:"sourceName"`
	SourceURL  *string               `json:"sourceUrl"`
	SourceDate *string               `json:"sourceDate"`
	PuNote     *string               `json:"puNote"`
	Status     *string               `json:"status"`
	Images     []service.ImageUpload `json:"images"`
}

func (h *EntryHandler) Create(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req createEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
	}

	entry, err := h.entries.Create(c.UserContext(), userID, service.CreateEntryInput{
		Category:   req.Category,
		Priority:   req.Priority,
		Region:     req.Region,
		Country:    req.Country,
		Headline:   req.Headline,
		Date:       date,
		Entry:      req.Entry,
		SourceName: req.SourceName,
		SourceURL:  req.SourceURL,
		SourceDate: req.SourceDate,
		PuNote:     req.PuNote,
		Status:     req.Status,
		Images:     req.Images,
	})
	if err != nil {
		if errors.Is(err, service.ErrEntryValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		slog.ErrorContext(c.UserContext(), "failed to create entry", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create entry"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *EntryHandler) entryID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid entry id")
	}
	return id, nil
}

func (h *EntryHandler) Get(c *fiber.Ctx) error {
	id, err := h.entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}

	entry, err := h.entries.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		}
		slog.ErrorContext(c.UserContext(), "failed to load entry", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load entry"})
	}
	return c.JSON(entry)
}

type updateEntryRequest struct {
	Category   *string               `json:"category"`
	Priority   *string               `json:"priority"`
	Region     *string               `json:"region"`
	Country    *model.CountryList    `json:"country"`
	Headline   *string               `json:"headline"`
	Date       *string               `json:"date"`
	Entry      *string               `json:"entry"`
	SourceName *string               `json:"sourceName"`
	SourceURL  *string               `json:"sourceUrl"`
	SourceDate *string               `json:"sourceDate"`
	PuNote     *string               `json:"puNote"`
	Status     *string               `json:"status"`
	AISummary  *model.SummaryLines   `json:"aiSummary"`
	Images     []service.ImageUpload `json:"images"`
	// ReplaceImages makes the request authoritative for the image set.
	ReplaceImages bool `json:"replaceImages"`
}

func (h *EntryHandler) Update(c *fiber.Ctx) error {
	id, err := h.entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}

	var req updateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	update := repository.EntryUpdate{
		Category:   req.Category,
		Priority:   req.Priority,
		Region:     req.Region,
		Country:    req.Country,
		Headline:   req.Headline,
		Entry:      req.Entry,
		SourceName: req.SourceName,
		SourceURL:  req.SourceURL,
		SourceDate: req.SourceDate,
		PuNote:     req.PuNote,
		Status:     req.Status,
		AISummary:  req.AISummary,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		update.Date = &date
	}

	entry, err := h.entries.Update(c.UserContext(), id, service.UpdateEntryInput{
		Update:        update,
		ReplaceImages: req.ReplaceImages,
		Images:        req.Images,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		case errors.Is(err, service.ErrNoFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			slog.ErrorContext(c.UserContext(), "failed to update entry", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update entry"})
		}
	}
	return c.JSON(entry)
}

func (h *EntryHandler) Delete(c *fiber.Ctx) error {
	id, err := h.entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}

	if err := h.entries.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		}
		slog.ErrorContext(c.UserContext(), "failed to delete entry", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete entry"})
	}
	return c.JSON(fiber.Map{"message": "entry deleted"})
}

type approvalRequest struct {
	// Action is an approval status or "postpone".
	Action string `json:"action"`
}

func (h *EntryHandler) Patch(c *fiber.Ctx) error {
	id, err := h.entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}

	var req approvalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.entries.SetApproval(c.UserContext(), id, req.Action); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidApprovalStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrEntryNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		default:
			slog.ErrorContext(c.UserContext(), "failed to update approval", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update approval"})
		}
	}
	return c.JSON(fiber.Map{"message": "entry updated"})
}

type commentRequest struct {
	Comment *string `json:"comment"`
}

func (h *EntryHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := h.entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.entries.UpdateComment(c.UserContext(), id, req.Comment); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		}
		slog.ErrorContext(c.UserContext(), "failed to update comment", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update comment"})
	}
	return c.JSON(fiber.Map{"message": "comment updated"})
}

// Countries lists custom country names used in past entries.
func (h *EntryHandler) Countries(c *fiber.Ctx) error {
	countries, err := h.entries.Countries(c.UserContext())
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to list countries", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list countries"})
	}
	return c.JSON(fiber.Map{"countries": countries})
}

// SourceNames lists the caller's previously used source names.
func (h *EntryHandler) SourceNames(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	names, err := h.entries.SourceNames(c.UserContext(), userID)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to list source names", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list source names"})
	}
	return c.JSON(fiber.Map{"sourceNames": names})
}
