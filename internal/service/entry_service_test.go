package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
)

func newEntryFixture() (*EntryService, *fakeEntryRepo, *fakeImageRepo, *fakeStorage) {
	entries := newFakeEntryRepo()
	images := newFakeImageRepo()
	storage := newFakeStorage()
	svc := NewEntryService(entries, images, storage, &capturedEvents{})
	return svc, entries, images, storage
}

func validEntryInput() CreateEntryInput {
	return CreateEntryInput{
		Category: "Peace and Security",
		Region:   "Africa",
		Country:  model.CountryList{"Sudan"},
		Headline: "Ceasefire talks resume",
		Date:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Entry:    "<p>Talks resumed in Jeddah.</p>",
	}
}

func TestCreateEntryDefaultsAndSanitizes(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	input := validEntryInput()
	input.Entry = `<p>Talks resumed.</p><script>alert(1)</script>`

	entry, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	assert.Equal(t, model.PrioritySituationalAwareness, entry.Priority)
	assert.Equal(t, model.ApprovalPending, entry.ApprovalStatus)
	assert.Equal(t, "<p>Talks resumed.</p>", entry.Entry)
	assert.NotNil(t, entry.AuthorID)
}

func TestCreateEntryRequiresCoreFields(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	input := validEntryInput()
	input.Headline = "  "
	_, err := svc.Create(context.Background(), uuid.New(), input)
	assert.ErrorIs(t, err, ErrEntryValidation)

	input = validEntryInput()
	input.Date = time.Time{}
	_, err = svc.Create(context.Background(), uuid.New(), input)
	assert.ErrorIs(t, err, ErrEntryValidation)
}

func TestCreateEntryUploadsImagesAndSkipsBadOnes(t *testing.T) {
	svc, _, images, storage := newEntryFixture()

	input := validEntryInput()
	input.Images = []ImageUpload{
		{
			Data:     "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
			Filename: "map.png",
			MimeType: "image/png",
		},
		{Data: "%%%not-base64%%%", Filename: "broken.png", MimeType: "image/png"},
	}

	entry, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	stored, err := images.ListByEntry(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "map.png", stored[0].Filename)

	data, err := storage.Download(context.Background(), stored[0].BlobURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestUpdateEntrySanitizesAndReturnsFresh(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	entry, err := svc.Create(context.Background(), uuid.New(), validEntryInput())
	require.NoError(t, err)

	dirty := `<p>updated</p><script>x()</script>`
	updated, err := svc.Update(context.Background(), entry.ID, UpdateEntryInput{
		Update: repository.EntryUpdate{Entry: &dirty},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>updated</p>", updated.Entry)
}

func TestUpdateEntryNoFields(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	entry, err := svc.Create(context.Background(), uuid.New(), validEntryInput())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), entry.ID, UpdateEntryInput{})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestUpdateEntryNotFound(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	headline := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateEntryInput{
		Update: repository.EntryUpdate{Headline: &headline},
	})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestUpdateEntryReplacesImages(t *testing.T) {
	svc, _, images, storage := newEntryFixture()

	input := validEntryInput()
	input.Images = []ImageUpload{{
		Data:     base64.StdEncoding.EncodeToString([]byte("old")),
		Filename: "old.png",
		MimeType: "image/png",
	}}
	entry, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)
	require.Len(t, entry.Images, 1)
	oldURL := entry.Images[0].BlobURL

	_, err = svc.Update(context.Background(), entry.ID, UpdateEntryInput{
		ReplaceImages: true,
		Images: []ImageUpload{{
			Data:     base64.StdEncoding.EncodeToString([]byte("new")),
			Filename: "new.png",
			MimeType: "image/png",
		}},
	})
	require.NoError(t, err)

	assert.Contains(t, storage.deleted, oldURL)
	stored, _ := images.ListByEntry(context.Background(), entry.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "new.png", stored[0].Filename)
}

func TestDeleteEntryCleansBlobs(t *testing.T) {
	svc, entries, _, storage := newEntryFixture()

	input := validEntryInput()
	input.Images = []ImageUpload{{
		Data:     base64.StdEncoding.EncodeToString([]byte("img")),
		Filename: "a.png",
		MimeType: "image/png",
	}}
	entry, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), entry.ID))
	assert.Empty(t, entries.entries)
	assert.Len(t, storage.deleted, 1)

	assert.ErrorIs(t, svc.Delete(context.Background(), entry.ID), ErrEntryNotFound)
}

func TestSetApprovalValidatesStatus(t *testing.T) {
	svc, entries, _, _ := newEntryFixture()

	entry, err := svc.Create(context.Background(), uuid.New(), validEntryInput())
	require.NoError(t, err)

	require.NoError(t, svc.SetApproval(context.Background(), entry.ID, model.ApprovalDiscussed))
	assert.Equal(t, model.ApprovalDiscussed, entries.entries[entry.ID].ApprovalStatus)

	assert.ErrorIs(t, svc.SetApproval(context.Background(), entry.ID, "approved"), ErrInvalidApprovalStatus)
	assert.ErrorIs(t, svc.SetApproval(context.Background(), uuid.New(), model.ApprovalPending), ErrEntryNotFound)
}

func TestSetApprovalPostpone(t *testing.T) {
	svc, entries, _, _ := newEntryFixture()

	entry, err := svc.Create(context.Background(), uuid.New(), validEntryInput())
	require.NoError(t, err)
	require.NoError(t, svc.SetApproval(context.Background(), entry.ID, model.ApprovalLeftOut))

	require.NoError(t, svc.SetApproval(context.Background(), entry.ID, "postpone"))
	stored := entries.entries[entry.ID]
	assert.Equal(t, entry.Date.AddDate(0, 0, 1), stored.Date)
	assert.Equal(t, model.ApprovalPending, stored.ApprovalStatus)
}

func TestCountriesReturnsOnlyCustomNames(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	input := validEntryInput()
	input.Country = model.CountryList{"Sudan", "Puntland"}
	_, err := svc.Create(context.Background(), uuid.New(), input)
	require.NoError(t, err)

	custom, err := svc.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Puntland"}, custom)
}

func TestSourceNamesScopedToAuthor(t *testing.T) {
	svc, _, _, _ := newEntryFixture()

	author := uuid.New()
	other := uuid.New()

	reuters := "Reuters"
	input := validEntryInput()
	input.SourceName = &reuters
	_, err := svc.Create(context.Background(), author, input)
	require.NoError(t, err)

	afp := "AFP"
	input = validEntryInput()
	input.SourceName = &afp
	_, err = svc.Create(context.Background(), other, input)
	require.NoError(t, err)

	names, err := svc.SourceNames(context.Background(), author)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reuters"}, names)
}
