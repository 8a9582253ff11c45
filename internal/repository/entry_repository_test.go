package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

func entryColumnNames() []string {
	return []string{
		"id", "category", "priority", "region", "country", "headline", "date",
		"entry", "source_name", "source_url", "source_date", "pu_note",
		"author_id", "author", "comment", "status", "approval_status",
		"ai_summary", "created_at", "updated_at",
	}
}

func imageColumnNames() []string {
	return []string{"id", "entry_id", "filename", "mime_type", "blob_url", "width", "height", "position"}
}

func TestEntryFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM entries e").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(entryColumnNames()))

	entry, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryListWithFiltersAndImages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	entryID := uuid.New()
	authorID := uuid.New()
	now := time.Now()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	entryRows := sqlmock.NewRows(entryColumnNames()).
		AddRow(entryID, "Peace and Security", model.PrioritySGAttention, "Africa",
			`["Sudan","Chad"]`, "Cross-border clashes", date,
			"<p>body</p>", "Reuters", nil, nil, nil,
			authorID, "Amina Diallo", nil, "submitted", model.ApprovalPending,
			nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM entries e").
		WithArgs(date, "submitted").
		WillReturnRows(entryRows)

	imageRows := sqlmock.NewRows(imageColumnNames()).
		AddRow(uuid.New(), entryID, "map.png", "image/png", "/uploads/1-map.png", 400, 300, 0)

	mock.ExpectQuery("SELECT (.+) FROM entry_images").
		WithArgs(entryID).
		WillReturnRows(imageRows)

	entries, err := repo.List(context.Background(), EntryFilters{Date: &date, Status: "submitted"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.CountryList{"Sudan", "Chad"}, entries[0].Country)
	assert.Equal(t, "Amina Diallo", entries[0].Author)
	require.Len(t, entries[0].Images, 1)
	assert.Equal(t, "map.png", entries[0].Images[0].Filename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryUpdateBuildsPartialSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	id := uuid.New()
	headline := "Updated headline"
	mock.ExpectExec("UPDATE entries SET headline").
		WithArgs(headline, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Update(context.Background(), id, EntryUpdate{Headline: &headline})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryUpdateNoFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	ok, err := repo.Update(context.Background(), uuid.New(), EntryUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM entries").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryPostpone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE entries").
		WithArgs(model.ApprovalPending, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Postpone(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctCountriesFlattensLists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)

	rows := sqlmock.NewRows([]string{"country"}).
		AddRow("Sudan").
		AddRow(`["Sudan","Chad"]`).
		AddRow("Mali")

	mock.ExpectQuery("SELECT DISTINCT country FROM entries").
		WillReturnRows(rows)

	countries, err := repo.DistinctCountries(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Sudan", "Chad", "Mali"}, countries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
