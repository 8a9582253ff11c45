package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/blob"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/jwt"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

type stubImageRepo struct {
	byID map[uuid.UUID]*model.Image
}

func (s *stubImageRepo) InsertForEntry(context.Context, *model.Image) error { return nil }

func (s *stubImageRepo) ListByEntry(context.Context, uuid.UUID) ([]model.Image, error) {
	return nil, nil
}

func (s *stubImageRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Image, error) {
	return s.byID[id], nil
}

func (s *stubImageRepo) DeleteByEntry(context.Context, uuid.UUID) ([]string, error) {
	return nil, nil
}

type stubStorage struct {
	blobs map[string][]byte
}

func (s *stubStorage) Upload(_ context.Context, data []byte, filename, _ string) (*blob.UploadResult, error) {
	return &blob.UploadResult{URL: "/uploads/" + filename, Filename: filename}, nil
}

func (s *stubStorage) Download(_ context.Context, url string) ([]byte, error) {
	data, ok := s.blobs[url]
	if !ok {
		return nil, fiber.ErrNotFound
	}
	return data, nil
}

func (s *stubStorage) Delete(context.Context, string) error { return nil }

// uploadsApp registers /uploads the way main does: behind the auth gate.
func uploadsApp(storage blob.Storage, images *stubImageRepo) *fiber.App {
	h := NewImageHandler(images, storage)
	app := fiber.New()
	app.Get("/uploads/:filename", AuthMiddleware(), h.ServeUpload)
	app.Get("/v1/images/:id", AuthMiddleware(), h.Serve)
	return app
}

func bearerToken(t *testing.T) string {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	access, _, err := jwt.GenerateTokens(&model.User{
		ID: uuid.New(), Email: "diallo@un.org", FirstName: "Amina", LastName: "Diallo", Team: "EOSG",
	})
	require.NoError(t, err)
	return "Bearer " + access
}

func TestServeUploadRequiresAuth(t *testing.T) {
	app := uploadsApp(&stubStorage{blobs: map[string][]byte{"/uploads/a.png": []byte("png")}}, &stubImageRepo{})

	req := httptest.NewRequest("GET", "/uploads/a.png", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestServeUploadSetsContentTypeFromExtension(t *testing.T) {
	app := uploadsApp(&stubStorage{blobs: map[string][]byte{"/uploads/a.png": []byte("png")}}, &stubImageRepo{})

	req := httptest.NewRequest("GET", "/uploads/a.png", nil)
	req.Header.Set("Authorization", bearerToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Cache-Control"), "immutable")
}

func TestServeUploadUnknownExtensionFallsBack(t *testing.T) {
	app := uploadsApp(&stubStorage{blobs: map[string][]byte{"/uploads/a.blob": []byte("x")}}, &stubImageRepo{})

	req := httptest.NewRequest("GET", "/uploads/a.blob", nil)
	req.Header.Set("Authorization", bearerToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
}

func TestServeStreamsWithStoredMimeType(t *testing.T) {
	imageID := uuid.New()
	images := &stubImageRepo{byID: map[uuid.UUID]*model.Image{
		imageID: {ID: imageID, MimeType: "image/jpeg", BlobURL: "/uploads/b.jpg"},
	}}
	app := uploadsApp(&stubStorage{blobs: map[string][]byte{"/uploads/b.jpg": []byte("jpeg")}}, images)

	req := httptest.NewRequest("GET", "/v1/images/"+imageID.String(), nil)
	req.Header.Set("Authorization", bearerToken(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline", resp.Header.Get("Content-Disposition"))
}
