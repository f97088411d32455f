package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrAttachmentNotFound is returned when an attachment index is out of range.
var ErrAttachmentNotFound = errors.New("attachment not found")

// Attachment is a file embedded inline with an achievement as a data URL.
type Attachment struct {
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Attachments is stored as a JSON array column.
type Attachments []Attachment

// AppendUpTo appends as many of add as fit under limit and reports how many
// were taken. A non-positive limit takes everything.
func (a Attachments) AppendUpTo(add Attachments, limit int) (Attachments, int) {
	n := len(add)
	if limit > 0 {
		free := limit - len(a)
		if free < 0 {
			free = 0
		}
		if n > free {
			n = free
		}
	}
	out := make(Attachments, 0, len(a)+n)
	out = append(out, a...)
	out = append(out, add[:n]...)
	return out, n
}

// Without returns a copy lacking the attachment at index.
func (a Attachments) Without(index int) (Attachments, error) {
	if index < 0 || index >= len(a) {
		return nil, ErrAttachmentNotFound
	}
	out := make(Attachments, 0, len(a)-1)
	out = append(out, a[:index]...)
	return append(out, a[index+1:]...), nil
}

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan attachments: unsupported type %T", src)
	}
	out := Attachments{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan attachments: %w", err)
	}
	*a = out
	return nil
}

// AttachmentRejection explains why one file of a batch was skipped.
type AttachmentRejection struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}
