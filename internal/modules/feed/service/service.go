package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/samber/lo"
	"github.com/samber/oops"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/feed/domain"
	postDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
)

// ChannelSource looks up channels.
type ChannelSource interface {
	Get(ctx context.Context, id int64) (*channelDomain.Channel, error)
}

// PostSource returns the newest published posts of a channel.
type PostSource interface {
	GetPublished(ctx context.Context, channelID int64, limit int) ([]*postDomain.Post, error)
}

// Service handles feed generation
type Service struct {
	channels ChannelSource
	posts    PostSource
}

// New creates a new feed service
func New(channels ChannelSource, posts PostSource) *Service {
	return &Service{
		channels: channels,
		posts:    posts,
	}
}

// GenerateFeed builds a feed of the channel's last published posts
func (s *Service) GenerateFeed(ctx context.Context, channelID int64, baseURL string) (*feeds.Feed, error) {
	channel, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return nil, oops.With("channel_id", channelID, "context", "channel not found").Wrap(err)
	}

	posts, err := s.posts.GetPublished(ctx, channelID, domain.MaxItems)
	if err != nil {
		return nil, oops.With("channel_id", channelID, "context", "failed to get posts").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s - Published posts", channel.Name),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss/%d", baseURL, channel.ID)},
		Description: fmt.Sprintf("Posts published to %s", channel.ChatID),
		Author:      &feeds.Author{Name: channel.ChatID},
		Created:     channel.CreatedAt,
		Updated:     channel.UpdatedAt,
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].CreatedAt
	}

	feed.Items = lo.Map(posts, func(p *postDomain.Post, _ int) *feeds.Item {
		return s.postToFeedItem(channel, p, baseURL)
	})
	return feed, nil
}

// Render serializes the feed in the requested format.
func (s *Service) Render(feed *feeds.Feed, format domain.Format) (string, error) {
	var (
		out string
		err error
	)
	switch format {
	case domain.FormatAtom:
		out, err = feed.ToAtom()
	case domain.FormatJson:
		out, err = feed.ToJSON()
	default:
		out, err = feed.ToRss()
	}
	if err != nil {
		return "", oops.With("format", format.String(), "context", "failed to render feed").Wrap(err)
	}
	return out, nil
}

func (s *Service) postToFeedItem(channel *channelDomain.Channel, p *postDomain.Post, baseURL string) *feeds.Item {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		text = "No text content"
	}

	// HTML captions are already markup; everything else is shown as text.
	content := text
	if channel.ParseMode != channelDomain.ParseModeHtml {
		content = "<p>" + html.EscapeString(text) + "</p>"
	}
	if images := imageFiles(p.Files); len(images) > 0 {
		content += "<p><strong>Images:</strong></p><ul>"
		for _, name := range images {
			content += "<li>" + html.EscapeString(name) + "</li>"
		}
		content += "</ul>"
	}

	return &feeds.Item{
		Title:       truncate(firstLine(text), 100),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss/%d#%d", baseURL, channel.ID, p.ID)},
		Description: text,
		Content:     content,
		Author:      &feeds.Author{Name: channel.ChatID},
		Created:     p.CreatedAt,
		Id:          fmt.Sprintf("%d-%d", channel.ID, p.ID),
	}
}

func imageFiles(names []string) []string {
	return lo.Filter(names, func(name string, _ int) bool {
		return !strings.HasSuffix(strings.ToLower(name), ".txt")
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
