package model

import "github.com/google/uuid"

type Image struct {
	ID       uuid.UUID `db:"id" json:"id"`
	EntryID  uuid.UUID `db:"entry_id" json:"entryId"`
	Filename string    `db:"filename" json:"filename"`
	MimeType string    `db:"mime_type" json:"mimeType"`
	BlobURL  string    `db:"blob_url" json:"blobUrl"`
	Width    *int      `db:"width" json:"width"`
	Height   *int      `db:"height" json:"height"`
	Position *int      `db:"position" json:"position"`
}
