package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/blob"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/events"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/repository"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range f.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ConsumeVerificationToken(_ context.Context, token string) (bool, error) {
	for _, u := range f.users {
		if u.VerificationToken != nil && *u.VerificationToken == token &&
			!u.EmailVerified && u.VerificationTokenExpires != nil &&
			u.VerificationTokenExpires.After(time.Now()) {
			u.EmailVerified = true
			u.VerificationToken = nil
			u.VerificationTokenExpires = nil
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpdateName(_ context.Context, id uuid.UUID, firstName, lastName string) error {
	if u, ok := f.users[id]; ok {
		u.FirstName, u.LastName = firstName, lastName
	}
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

type fakeWhitelistRepo struct {
	emails     map[string]uuid.UUID
	registered map[string]bool
}

func newFakeWhitelistRepo(emails ...string) *fakeWhitelistRepo {
	f := &fakeWhitelistRepo{emails: make(map[string]uuid.UUID), registered: make(map[string]bool)}
	for _, e := range emails {
		f.emails[strings.ToLower(e)] = uuid.Nil
	}
	return f
}

func (f *fakeWhitelistRepo) List(context.Context) ([]model.WhitelistRow, error) {
	var rows []model.WhitelistRow
	for e := range f.emails {
		rows = append(rows, model.WhitelistRow{Email: e})
	}
	return rows, nil
}

func (f *fakeWhitelistRepo) Contains(_ context.Context, email string) (bool, error) {
	_, ok := f.emails[strings.ToLower(email)]
	return ok, nil
}

func (f *fakeWhitelistRepo) Add(_ context.Context, email string, _ uuid.UUID) error {
	f.emails[strings.ToLower(email)] = uuid.Nil
	return nil
}

func (f *fakeWhitelistRepo) LinkUser(_ context.Context, email string, userID uuid.UUID) error {
	f.emails[strings.ToLower(email)] = userID
	f.registered[strings.ToLower(email)] = true
	return nil
}

func (f *fakeWhitelistRepo) Remove(_ context.Context, email string) (bool, error) {
	key := strings.ToLower(email)
	if _, ok := f.emails[key]; !ok || f.registered[key] {
		return false, nil
	}
	delete(f.emails, key)
	return true, nil
}

func (f *fakeWhitelistRepo) HasRegisteredUser(_ context.Context, email string) (bool, error) {
	return f.registered[strings.ToLower(email)], nil
}

type fakeResetRepo struct {
	resets []model.PasswordReset
	nextID int64
}

func (f *fakeResetRepo) InvalidateForUser(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for i := range f.resets {
		if f.resets[i].UserID == userID && f.resets[i].UsedAt == nil {
			f.resets[i].UsedAt = &now
		}
	}
	return nil
}

func (f *fakeResetRepo) Create(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time, ip string) error {
	f.nextID++
	f.resets = append(f.resets, model.PasswordReset{
		ID: f.nextID, UserID: userID, TokenHash: tokenHash,
		ExpiresAt: expiresAt, IPAddress: ip, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeResetRepo) ListActive(context.Context) ([]model.PasswordReset, error) {
	var active []model.PasswordReset
	for _, r := range f.resets {
		if r.UsedAt == nil && r.ExpiresAt.After(time.Now()) {
			active = append(active, r)
		}
	}
	return active, nil
}

func (f *fakeResetRepo) MarkUsed(_ context.Context, id int64) error {
	now := time.Now()
	for i := range f.resets {
		if f.resets[i].ID == id {
			f.resets[i].UsedAt = &now
		}
	}
	return nil
}

type fakeMailer struct {
	verifications []string // tokens sent
	resetTokens   []string
	failNext      bool
}

func (f *fakeMailer) SendVerificationEmail(_, _, token string) error {
	if f.failNext {
		f.failNext = false
		return errSMTPDown
	}
	f.verifications = append(f.verifications, token)
	return nil
}

func (f *fakeMailer) SendPasswordResetEmail(_, _, token string) error {
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

var errSMTPDown = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "smtp connection timed out" }

type fakeEntryRepo struct {
	entries map[uuid.UUID]*model.Entry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[uuid.UUID]*model.Entry)}
}

func (f *fakeEntryRepo) Insert(_ context.Context, entry *model.Entry) error {
	e := *entry
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.entries[entry.ID] = &e
	return nil
}

func (f *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Entry, error) {
	if e, ok := f.entries[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeEntryRepo) List(_ context.Context, filters repository.EntryFilters) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range f.entries {
		if filters.Date != nil && !sameDay(e.Date, *filters.Date) {
			continue
		}
		if filters.Status != "" && (e.Status == nil || *e.Status != filters.Status) {
			continue
		}
		if filters.Author != nil && (e.AuthorID == nil || *e.AuthorID != *filters.Author) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (f *fakeEntryRepo) Update(_ context.Context, id uuid.UUID, update repository.EntryUpdate) (bool, error) {
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	if update.Headline != nil {
		e.Headline = *update.Headline
	}
	if update.Entry != nil {
		e.Entry = *update.Entry
	}
	if update.PuNote != nil {
		e.PuNote = update.PuNote
	}
	if update.Category != nil {
		e.Category = *update.Category
	}
	if update.Country != nil {
		e.Country = *update.Country
	}
	if update.Date != nil {
		e.Date = *update.Date
	}
	e.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeEntryRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.entries[id]; !ok {
		return false, nil
	}
	delete(f.entries, id)
	return true, nil
}

func (f *fakeEntryRepo) UpdateComment(_ context.Context, id uuid.UUID, comment *string) (bool, error) {
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	e.Comment = comment
	return true, nil
}

func (f *fakeEntryRepo) UpdateApproval(_ context.Context, id uuid.UUID, status string) (bool, error) {
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	e.ApprovalStatus = status
	return true, nil
}

func (f *fakeEntryRepo) Postpone(_ context.Context, id uuid.UUID) (bool, error) {
	e, ok := f.entries[id]
	if !ok {
		return false, nil
	}
	e.Date = e.Date.AddDate(0, 0, 1)
	e.ApprovalStatus = model.ApprovalPending
	return true, nil
}

func (f *fakeEntryRepo) DistinctCountries(context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range f.entries {
		for _, c := range e.Country {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) DistinctSourceNames(_ context.Context, authorID uuid.UUID) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range f.entries {
		if e.AuthorID == nil || *e.AuthorID != authorID || e.SourceName == nil {
			continue
		}
		if _, ok := seen[*e.SourceName]; !ok {
			seen[*e.SourceName] = struct{}{}
			out = append(out, *e.SourceName)
		}
	}
	return out, nil
}

type fakeImageRepo struct {
	images map[uuid.UUID][]model.Image
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{images: make(map[uuid.UUID][]model.Image)}
}

func (f *fakeImageRepo) InsertForEntry(_ context.Context, image *model.Image) error {
	f.images[image.EntryID] = append(f.images[image.EntryID], *image)
	return nil
}

func (f *fakeImageRepo) ListByEntry(_ context.Context, entryID uuid.UUID) ([]model.Image, error) {
	return f.images[entryID], nil
}

func (f *fakeImageRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Image, error) {
	for _, imgs := range f.images {
		for _, img := range imgs {
			if img.ID == id {
				copy := img
				return &copy, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeImageRepo) DeleteByEntry(_ context.Context, entryID uuid.UUID) ([]string, error) {
	var urls []string
	for _, img := range f.images[entryID] {
		urls = append(urls, img.BlobURL)
	}
	delete(f.images, entryID)
	return urls, nil
}

type fakeStorage struct {
	blobs   map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, filename, _ string) (*blob.UploadResult, error) {
	url := "/uploads/" + filename
	f.blobs[url] = data
	return &blob.UploadResult{URL: url, Filename: filename}, nil
}

func (f *fakeStorage) Download(_ context.Context, url string) ([]byte, error) {
	return f.blobs[url], nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	delete(f.blobs, url)
	f.deleted = append(f.deleted, url)
	return nil
}

type capturedEvents struct {
	registered []events.UserRegisteredEvent
	created    []events.EntryCreatedEvent
	approvals  []events.ApprovalChangedEvent
}

func (c *capturedEvents) PublishUserRegistered(e events.UserRegisteredEvent) error {
	c.registered = append(c.registered, e)
	return nil
}

func (c *capturedEvents) PublishEntryCreated(e events.EntryCreatedEvent) error {
	c.created = append(c.created, e)
	return nil
}

func (c *capturedEvents) PublishApprovalChanged(e events.ApprovalChangedEvent) error {
	c.approvals = append(c.approvals, e)
	return nil
}
