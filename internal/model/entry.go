package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ApprovalPending   = "pending"
	ApprovalDiscussed = "discussed"
	ApprovalLeftOut   = "left-out"

	PrioritySGAttention          = "sg-attention"
	PrioritySituationalAwareness = "situational-awareness"

	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

func ValidApprovalStatus(s string) bool {
	switch s {
	case ApprovalPending, ApprovalDiscussed, ApprovalLeftOut:
		return true
	}
	return false
}

// CountryList holds the entry's country field, which is a single country for
// most entries and a list for multi-country topics. It is stored as a plain
// string or a JSON array, and serialized to JSON the same way.
type CountryList []string

func (c CountryList) MarshalJSON() ([]byte, error) {
	switch len(c) {
	case 0:
		return json.Marshal("")
	case 1:
		return json.Marshal(c[0])
	default:
		return json.Marshal([]string(c))
	}
}

func (c *CountryList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*c = nil
		} else {
			*c = CountryList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("country must be a string or an array of strings")
	}
	*c = CountryList(many)
	return nil
}

func (c CountryList) Value() (driver.Value, error) {
	switch len(c) {
	case 0:
		return "", nil
	case 1:
		return c[0], nil
	default:
		b, err := json.Marshal([]string(c))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func (c *CountryList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CountryList", src)
	}
	*c = ParseCountry(raw)
	return nil
}

// ParseCountry decodes the stored country column: a JSON array for
// multi-country entries, otherwise a plain string.
func ParseCountry(raw string) CountryList {
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var many []string
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			return CountryList(many)
		}
	}
	return CountryList{raw}
}

// SummaryLines is the AI-generated bullet summary, stored as a JSON array.
type SummaryLines []string

func (s SummaryLines) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SummaryLines) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into SummaryLines", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return err
	}
	*s = SummaryLines(lines)
	return nil
}

type Entry struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	Category       string       `db:"category" json:"category"`
	Priority       string       `db:"priority" json:"priority"`
	Region         string       `db:"region" json:"region"`
	Country        CountryList  `db:"country" json:"country"`
	Headline       string       `db:"headline" json:"headline"`
	Date           time.Time    `db:"date" json:"date"`
	Entry          string       `db:"entry" json:"entry"`
	SourceName     *string      `db:"source_name" json:"sourceName"`
	SourceURL      *string      `db:"source_url" json:"sourceUrl"`
	SourceDate     *string      `db:"source_date" json:"sourceDate"`
	PuNote         *string      `db:"pu_note" json:"puNote"`
	AuthorID       *uuid.UUID   `db:"author_id" json:"authorId"`
	Author         string       `db:"author" json:"author"`
	Comment        *string      `db:"comment" json:"comment"`
	Status         *string      `db:"status" json:"status"`
	ApprovalStatus string       `db:"approval_status" json:"approvalStatus"`
	AISummary      SummaryLines `db:"ai_summary" json:"aiSummary"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
	Images         []Image      `db:"-" json:"images"`
}
