package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/posting/domain"
)

// Sender delivers posts to channels through the Bot API
type Sender struct {
	bot *bot.Bot
}

// NewSender creates a new Telegram sender
func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// SendText sends a plain message.
func (s *Sender) SendText(ctx context.Context, chatID, text string, mode channelDomain.ParseMode) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode(mode),
	})
	if err != nil {
		return oops.With("chat_id", chatID, "method", "sendMessage").Wrap(err)
	}
	return nil
}

// SendPhotoGroup sends the photos as one album. The Bot API needs at least
// two items for an album, a single photo is sent on its own.
func (s *Sender) SendPhotoGroup(ctx context.Context, chatID string, photos []domain.Photo, mode channelDomain.ParseMode) error {
	if len(photos) == 0 {
		return oops.With("chat_id", chatID).Errorf("no photos to send")
	}

	var opened []*os.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	open := func(path string) (*os.File, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, oops.With("path", path, "context", "failed to open photo").Wrap(err)
		}
		opened = append(opened, f)
		return f, nil
	}

	if len(photos) == 1 {
		f, err := open(photos[0].Path)
		if err != nil {
			return err
		}
		_, err = s.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     &models.InputFileUpload{Filename: filepath.Base(photos[0].Path), Data: f},
			Caption:   photos[0].Caption,
			ParseMode: parseMode(mode),
		})
		if err != nil {
			return oops.With("chat_id", chatID, "method", "sendPhoto").Wrap(err)
		}
		return nil
	}

	media := make([]models.InputMedia, 0, len(photos))
	for i, p := range photos {
		f, err := open(p.Path)
		if err != nil {
			return err
		}
		item := &models.InputMediaPhoto{
			Media:           fmt.Sprintf("attach://photo%d", i),
			MediaAttachment: f,
		}
		if p.Caption != "" {
			item.Caption = p.Caption
			item.ParseMode = parseMode(mode)
		}
		media = append(media, item)
	}

	if _, err := s.bot.SendMediaGroup(ctx, &bot.SendMediaGroupParams{ChatID: chatID, Media: media}); err != nil {
		return oops.With("chat_id", chatID, "method", "sendMediaGroup", "photos", len(photos)).Wrap(err)
	}
	return nil
}

func parseMode(mode channelDomain.ParseMode) models.ParseMode {
	switch mode {
	case channelDomain.ParseModeMarkdown:
		return models.ParseModeMarkdownV1
	case channelDomain.ParseModeMarkdownv2:
		return models.ParseModeMarkdown
	}
	return models.ParseModeHTML
}
