package domain

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Post records one publication attempt of a file group
type Post struct {
	ID        int64      `json:"id" db:"id"`
	ChannelID int64      `json:"channel_id" db:"channel_id"`
	GroupKey  string     `json:"group_key" db:"group_key"`
	Text      string     `json:"text" db:"text"`
	Files     FileList   `json:"files" db:"files"`
	Status    PostStatus `json:"status" db:"status"`
	Error     string     `json:"error,omitempty" db:"error"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// FileList is stored as a newline separated column
type FileList []string

func (l FileList) Value() (driver.Value, error) {
	return strings.Join(l, "\n"), nil
}

func (l *FileList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return oops.Errorf("unsupported file list type %T", src)
	}
	if s == "" {
		*l = FileList{}
		return nil
	}
	*l = strings.Split(s, "\n")
	return nil
}
