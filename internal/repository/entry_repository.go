package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

// EntryFilters narrows the entry listing. Zero values mean "no filter".
type EntryFilters struct {
	Date   *time.Time
	Status string
	Author *uuid.UUID
}

// EntryUpdate carries partial-update fields; nil pointers are left unchanged.
type EntryUpdate struct {
	Category   *string
	Priority   *string
	Region     *string
	Country    *model.CountryList
	Headline   *string
	Date       *time.Time
	Entry      *string
	SourceName *string
	SourceURL  *string
	SourceDate *string
	PuNote     *string
	Status     *string
	AISummary  *model.SummaryLines
}

type EntryRepository interface {
	Insert(ctx context.Context, entry *model.Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Entry, error)
	List(ctx context.Context, filters EntryFilters) ([]model.Entry, error)
	Update(ctx context.Context, id uuid.UUID, update EntryUpdate) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateComment(ctx context.Context, id uuid.UUID, comment *string) (bool, error)
	UpdateApproval(ctx context.Context, id uuid.UUID, status string) (bool, error)
	Postpone(ctx context.Context, id uuid.UUID) (bool, error)
	DistinctCountries(ctx context.Context) ([]string, error)
	DistinctSourceNames(ctx context.Context, authorID uuid.UUID) ([]string, error)
}

type postgresEntryRepository struct {
	db *sqlx.DB
}

func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

const entryColumns = `
	e.id, e.category, e.priority, e.region, e.country, e.headline, e.date,
	e.entry, e.source_name, e.source_url, e.source_date, e.pu_note,
	e.author_id, COALESCE(TRIM(u.first_name || ' ' || u.last_name), '') AS author,
	e.comment, e.status, e.approval_status, e.ai_summary, e.created_at, e.updated_at`

func (r *postgresEntryRepository) Insert(ctx context.Context, entry *model.Entry) error {
	query := `
		INSERT INTO entries (id, category, priority, region, country, headline, date,
			entry, source_name, source_url, source_date, pu_note, author_id,
			comment, status, approval_status, ai_summary)
		VALUES (:id, :category, :priority, :region, :country, :headline, :date,
			:entry, :source_name, :source_url, :source_date, :pu_note, :author_id,
			:comment, :status, :approval_status, :ai_summary)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (r *postgresEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Entry, error) {
	var entry model.Entry
	query := `SELECT ` + entryColumns + `
		FROM entries e
		LEFT JOIN users u ON u.id = e.author_id
		WHERE e.id = $1`
	err := r.db.GetContext(ctx, &entry, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}
	if err := r.attachImages(ctx, []*model.Entry{&entry}); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *postgresEntryRepository) List(ctx context.Context, filters EntryFilters) ([]model.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM entries e
		LEFT JOIN users u ON u.id = e.author_id`

	var conditions []string
	var args []any
	if filters.Date != nil {
		args = append(args, *filters.Date)
		conditions = append(conditions, fmt.Sprintf("e.date::date = $%d::date", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filters.Author != nil {
		args = append(args, *filters.Author)
		conditions = append(conditions, fmt.Sprintf("e.author_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.date DESC, e.created_at DESC"

	var entries []model.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	refs := make([]*model.Entry, len(entries))
	for i := range entries {
		refs[i] = &entries[i]
	}
	if err := r.attachImages(ctx, refs); err != nil {
		return nil, err
	}
	return entries, nil
}

// attachImages loads all images for the given entries in a single query.
func (r *postgresEntryRepository) attachImages(ctx context.Context, entries []*model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(entries))
	byID := make(map[uuid.UUID]*model.Entry, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		byID[e.ID] = e
		e.Images = []model.Image{}
	}

	query, args, err := sqlx.In(`
		SELECT * FROM entry_images
		WHERE entry_id IN (?)
		ORDER BY position NULLS LAST, id`, ids)
	if err != nil {
		return fmt.Errorf("failed to build image query: %w", err)
	}
	query = r.db.Rebind(query)

	var images []model.Image
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return fmt.Errorf("failed to load entry images: %w", err)
	}
	for _, img := range images {
		if e, ok := byID[img.EntryID]; ok {
			e.Images = append(e.Images, img)
		}
	}
	return nil
}

func (r *postgresEntryRepository) Update(ctx context.Context, id uuid.UUID, update EntryUpdate) (bool, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Category != nil {
		add("category", *update.Category)
	}
	if update.Priority != nil {
		add("priority", *update.Priority)
	}
	if update.Region != nil {
		add("region", *update.Region)
	}
	if update.Country != nil {
		add("country", *update.Country)
	}
	if update.Headline != nil {
		add("headline", *update.Headline)
	}
	if update.Date != nil {
		add("date", *update.Date)
	}
	if update.Entry != nil {
		add("entry", *update.Entry)
	}
	if update.SourceName != nil {
		add("source_name", *update.SourceName)
	}
	if update.SourceURL != nil {
		add("source_url", *update.SourceURL)
	}
	if update.SourceDate != nil {
		add("source_date", *update.SourceDate)
	}
	if update.PuNote != nil {
		add("pu_note", *update.PuNote)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.AISummary != nil {
		add("ai_summary", *update.AISummary)
	}
	if len(sets) == 0 {
		return false, nil
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE entries SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresEntryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresEntryRepository) UpdateComment(ctx context.Context, id uuid.UUID, comment *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET comment = $1, updated_at = NOW() WHERE id = $2`, comment, id)
	if err != nil {
		return false, fmt.Errorf("failed to update comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresEntryRepository) UpdateApproval(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET approval_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to update approval status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Postpone moves the entry to the next day's briefing and resets its
// approval state for re-discussion.
func (r *postgresEntryRepository) Postpone(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET date = date + INTERVAL '1 day',
			approval_status = $1,
			updated_at = NOW()
		WHERE id = $2`, model.ApprovalPending, id)
	if err != nil {
		return false, fmt.Errorf("failed to postpone entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresEntryRepository) DistinctCountries(ctx context.Context) ([]string, error) {
	var raw []string
	err := r.db.SelectContext(ctx, &raw, `
		SELECT DISTINCT country FROM entries
		WHERE country IS NOT NULL AND country <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}

	seen := make(map[string]struct{})
	var countries []string
	for _, value := range raw {
		for _, name := range model.ParseCountry(value) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			countries = append(countries, name)
		}
	}
	return countries, nil
}

func (r *postgresEntryRepository) DistinctSourceNames(ctx context.Context, authorID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names, `
		SELECT DISTINCT source_name FROM entries
		WHERE author_id = $1 AND source_name IS NOT NULL AND source_name <> ''
		ORDER BY source_name
		LIMIT 50`, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list source names: %w", err)
	}
	return names, nil
}
