package domain

import (
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

// DefaultInterval is the posting interval used when a channel does not set one.
const DefaultInterval = 4 * 60

// Channel is a posting destination with its own cadence and directory tree.
type Channel struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Interval  int       `json:"interval" db:"interval"`
	ParseMode ParseMode `json:"parse_mode" db:"parse_mode"`
	Active    bool      `json:"active" db:"active"`
	SourceDir string    `json:"path_to_source_dir" db:"source_dir"`
	DoneDir   string    `json:"path_to_done_dir" db:"done_dir"`
	ExceptDir string    `json:"path_to_except_dir" db:"except_dir"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Every returns the posting interval as a duration, falling back to the default.
func (c *Channel) Every() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval * time.Second
	}
	return time.Duration(c.Interval) * time.Second
}

// Normalize fills defaults and validates the fields the pipeline relies on.
func (c *Channel) Normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.ChatID = strings.TrimSpace(c.ChatID)

	if c.Name == "" {
		return oops.With("field", "name").Wrap(errors.ErrInvalidChannel)
	}
	// The name becomes a directory, it must not escape the base dir.
	if strings.ContainsAny(c.Name, `/\`) || c.Name == "." || c.Name == ".." {
		return oops.With("field", "name", "name", c.Name).Wrap(errors.ErrInvalidChannel)
	}
	if c.ChatID == "" {
		return oops.With("field", "chat_id").Wrap(errors.ErrInvalidChannel)
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.ParseMode == "" {
		c.ParseMode = ParseModeHtml
	}
	mode, err := ParseParseMode(string(c.ParseMode))
	if err != nil {
		return oops.With("field", "parse_mode").Wrap(errors.ErrInvalidChannel)
	}
	c.ParseMode = mode
	return nil
}
