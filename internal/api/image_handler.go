package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/blob"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
)

type ImageHandler struct {
	images  repository.ImageRepository
	storage blob.Storage
}

func NewImageHandler(images repository.ImageRepository, storage blob.Storage) *ImageHandler {
	return &ImageHandler{images: images, storage: storage}
}

// Upload accepts a multipart file and returns a data URL for embedding in
// the editor before the entry is saved.
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only image uploads are accepted"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read file"})
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	return c.JSON(fiber.Map{
		"dataUrl":  dataURL,
		"filename": fileHeader.Filename,
		"mimeType": mimeType,
		"size":     len(data),
	})
}

// Redirect resolves ?id= to the stored blob URL with a 302.
func (h *ImageHandler) Redirect(c *fiber.Ctx) error {
	raw := c.Query("id")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid image id"})
	}

	image, err := h.images.FindByID(c.UserContext(), id)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to look up image", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to look up image"})
	}
	if image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	return c.Redirect(image.BlobURL, fiber.StatusFound)
}

// Serve streams the image bytes by ID.
func (h *ImageHandler) Serve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid image id"})
	}

	image, err := h.images.FindByID(c.UserContext(), id)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to look up image", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to look up image"})
	}
	if image == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}

	data, err := h.storage.Download(c.UserContext(), image.BlobURL)
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to download image", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to download image"})
	}

	c.Set("Content-Type", image.MimeType)
	c.Set("Content-Disposition", "inline")
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Send(data)
}

// ServeUpload serves locally stored blobs by filename. The filename is
// reduced to its base to block path traversal.
func (h *ImageHandler) ServeUpload(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	if name == "" || name == "." || name == ".." {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid filename"})
	}

	data, err := h.storage.Download(c.UserContext(), "/uploads/"+name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set("Content-Type", contentType)
	c.Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Send(data)
}
