package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/blob"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/events"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/sanitize"
)

var (
	ErrEntryNotFound         = errors.New("entry not found")
	ErrInvalidApprovalStatus = errors.New("invalid approval status")
	ErrNoFields              = errors.New("no fields to update")
	ErrInvalidImagePayload   = errors.New("invalid image payload")
	ErrEntryValidation       = errors.New("category, region, headline, date and entry are required")
)

type EntryService struct {
	entries   repository.EntryRepository
	images    repository.ImageRepository
	storage   blob.Storage
	publisher events.EventPublisher
}

func NewEntryService(
	entries repository.EntryRepository,
	images repository.ImageRepository,
	storage blob.Storage,
	publisher events.EventPublisher,
) *EntryService {
	return &EntryService{entries: entries, images: images, storage: storage, publisher: publisher}
}

// ImageUpload is a base64-encoded image attached to a create or update.
type ImageUpload struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
	Position *int   `json:"position"`
}

type CreateEntryInput struct {
	Category   string
	Priority   string
	Region     string
	Country    model.CountryList
	Headline   string
	Date       time.Time
	Entry      string
	SourceName *string
	SourceURL  *string
	SourceDate *string
	PuNote     *string
	Status     *string
	Images     []ImageUpload
}

func (s *EntryService) Create(ctx context.Context, authorID uuid.UUID, input CreateEntryInput) (*model.Entry, error) {
	if input.Category == "" || input.Region == "" ||
		strings.TrimSpace(input.Headline) == "" || input.Date.IsZero() ||
		strings.TrimSpace(input.Entry) == "" {
		return nil, ErrEntryValidation
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PrioritySituationalAwareness
	}

	entry := &model.Entry{
		ID:             uuid.New(),
		Category:       input.Category,
		Priority:       priority,
		Region:         input.Region,
		Country:        input.Country,
		Headline:       strings.TrimSpace(input.Headline),
		Date:           input.Date,
		Entry:          sanitize.HTML(input.Entry),
		SourceName:     input.SourceName,
		SourceURL:      input.SourceURL,
		SourceDate:     input.SourceDate,
		PuNote:         sanitizeOptional(input.PuNote),
		AuthorID:       &authorID,
		Status:         input.Status,
		ApprovalStatus: model.ApprovalPending,
	}
	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, err
	}

	entry.Images = s.uploadImages(ctx, entry.ID, input.Images)

	go func() {
		if err := s.publisher.PublishEntryCreated(events.EntryCreatedEvent{
			EntryID:   entry.ID.String(),
			AuthorID:  authorID.String(),
			Category:  entry.Category,
			Region:    entry.Region,
			Date:      entry.Date,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			slog.Error("failed to publish entry created event", "error", err)
		}
	}()

	return s.Get(ctx, entry.ID)
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitize.HTML(*s)
	return &clean
}

// uploadImages stores attachments and records them. A failed image is logged
// and skipped so one bad attachment does not lose the entry.
func (s *EntryService) uploadImages(ctx context.Context, entryID uuid.UUID, uploads []ImageUpload) []model.Image {
	images := []model.Image{}
	for _, up := range uploads {
		data, err := decodeImageData(up.Data)
		if err != nil {
			slog.Error("skipping undecodable image", "filename", up.Filename, "error", err)
			continue
		}
		res, err := s.storage.Upload(ctx, data, up.Filename, up.MimeType)
		if err != nil {
			slog.Error("skipping image upload failure", "filename", up.Filename, "error", err)
			continue
		}
		img := &model.Image{
			ID:       uuid.New(),
			EntryID:  entryID,
			Filename: res.Filename,
			MimeType: up.MimeType,
			BlobURL:  res.URL,
			Width:    up.Width,
			Height:   up.Height,
			Position: up.Position,
		}
		if err := s.images.InsertForEntry(ctx, img); err != nil {
			slog.Error("failed to record image", "filename", up.Filename, "error", err)
			continue
		}
		images = append(images, *img)
	}
	return images
}

// decodeImageData accepts raw base64 or a data URL.
func decodeImageData(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImagePayload, err)
	}
	return decoded, nil
}

func (s *EntryService) Get(ctx context.Context, id uuid.UUID) (*model.Entry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *EntryService) List(ctx context.Context, filters repository.EntryFilters) ([]model.Entry, error) {
	return s.entries.List(ctx, filters)
}

type UpdateEntryInput struct {
	Update        repository.EntryUpdate
	ReplaceImages bool
	Images        []ImageUpload
}

func (s *EntryService) Update(ctx context.Context, id uuid.UUID, input UpdateEntryInput) (*model.Entry, error) {
	if input.Update.Entry != nil {
		clean := sanitize.HTML(*input.Update.Entry)
		input.Update.Entry = &clean
	}
	if input.Update.PuNote != nil {
		input.Update.PuNote = sanitizeOptional(input.Update.PuNote)
	}

	hasFields := input.Update != (repository.EntryUpdate{})
	if !hasFields && !input.ReplaceImages {
		return nil, ErrNoFields
	}

	if hasFields {
		updated, err := s.entries.Update(ctx, id, input.Update)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, ErrEntryNotFound
		}
	} else {
		// Image-only update still requires the entry to exist.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	if input.ReplaceImages {
		urls, err := s.images.DeleteByEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if err := s.storage.Delete(ctx, u); err != nil {
				slog.Error("failed to delete replaced blob", "url", u, "error", err)
			}
		}
		s.uploadImages(ctx, id, input.Images)
	}

	return s.Get(ctx, id)
}

func (s *EntryService) Delete(ctx context.Context, id uuid.UUID) error {
	urls, err := s.images.DeleteByEntry(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.entries.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	for _, u := range urls {
		if err := s.storage.Delete(ctx, u); err != nil {
			slog.Error("failed to delete blob", "url", u, "error", err)
		}
	}
	return nil
}

func (s *EntryService) UpdateComment(ctx context.Context, id uuid.UUID, comment *string) error {
	if comment != nil {
		clean := sanitize.HTML(*comment)
		comment = &clean
	}
	updated, err := s.entries.UpdateComment(ctx, id, comment)
	if err != nil {
		return err
	}
	if !updated {
		return ErrEntryNotFound
	}
	return nil
}

// SetApproval applies an approval decision, or postpones the entry to the
// next day when action is "postpone".
func (s *EntryService) SetApproval(ctx context.Context, id uuid.UUID, action string) error {
	var updated bool
	var err error
	switch {
	case action == "postpone":
		updated, err = s.entries.Postpone(ctx, id)
	case model.ValidApprovalStatus(action):
		updated, err = s.entries.UpdateApproval(ctx, id, action)
	default:
		return ErrInvalidApprovalStatus
	}
	if err != nil {
		return err
	}
	if !updated {
		return ErrEntryNotFound
	}

	go func() {
		if err := s.publisher.PublishApprovalChanged(events.ApprovalChangedEvent{
			EntryID:   id.String(),
			Status:    action,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			slog.Error("failed to publish approval changed event", "error", err)
		}
	}()
	return nil
}

// Countries returns custom country names used in past entries, i.e. values
// outside the predefined vocabulary, for form autocomplete.
func (s *EntryService) Countries(ctx context.Context) ([]string, error) {
	all, err := s.entries.DistinctCountries(ctx)
	if err != nil {
		return nil, err
	}
	custom := []string{}
	for _, name := range all {
		if !model.IsPredefinedCountry(name) {
			custom = append(custom, name)
		}
	}
	return custom, nil
}

func (s *EntryService) SourceNames(ctx context.Context, authorID uuid.UUID) ([]string, error) {
	return s.entries.DistinctSourceNames(ctx, authorID)
}
