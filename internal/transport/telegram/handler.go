package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	channelService "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/service"
	postDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

// Channels is the channel control surface exposed to operators.
type Channels interface {
	Activate(ctx context.Context, id int64) (*channelDomain.Channel, error)
	Deactivate(ctx context.Context, id int64) error
	Overview(ctx context.Context) ([]channelService.Status, error)
}

// PostStats counts recorded posts per status.
type PostStats interface {
	Stats(ctx context.Context, channelID int64) (map[postDomain.PostStatus]int, error)
}

// Authorizer decides who may run operator commands.
type Authorizer interface {
	IsAuthorized(userID int64, allowedUsers []int64) bool
}

// Handler handles Telegram operator commands
type Handler struct {
	channels     Channels
	posts        PostStats
	auth         Authorizer
	allowedUsers []int64
	startedAt    time.Time
}

// New creates a new Telegram handler
func New(channels Channels, posts PostStats, auth Authorizer, allowedUsers []int64) *Handler {
	return &Handler{
		channels:     channels,
		posts:        posts,
		auth:         auth,
		allowedUsers: allowedUsers,
		startedAt:    time.Now(),
	}
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	for _, cmd := range []string{"/start", "/help", "/channels", "/status"} {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypeExact, h.handleCommand)
	}
	for _, cmd := range []string{"/activate", "/deactivate"} {
		b.RegisterHandler(bot.HandlerTypeMessageText, cmd, bot.MatchTypePrefix, h.handleCommand)
	}
}

// HandleUpdate is the default handler for updates no command matched.
func HandleUpdate(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		slog.Debug("Ignoring message", "chat_id", update.Message.Chat.ID, "text", update.Message.Text)
	}
}

func (h *Handler) handleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	reply := h.Execute(ctx, update.Message.From.ID, update.Message.Text)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	}); err != nil {
		slog.Error("Failed to send reply", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

// Execute runs one command for the user and returns the reply text.
func (h *Handler) Execute(ctx context.Context, userID int64, text string) string {
	if !h.auth.IsAuthorized(userID, h.allowedUsers) {
		slog.Warn("Unauthorized command", "user_id", userID, "text", text)
		return "❌ You are not authorized to use this bot."
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return helpText
	}
	// Commands in groups arrive as /cmd@botname.
	cmd, _, _ := strings.Cut(parts[0], "@")

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/channels":
		return h.listChannels(ctx)
	case "/status":
		return h.status(ctx)
	case "/activate":
		return h.toggle(ctx, parts, true)
	case "/deactivate":
		return h.toggle(ctx, parts, false)
	}
	return "Unknown command. " + helpText
}

const helpText = `👋 Channel autoposter

Available commands:
/help - Show this help message
/channels - List channels and their timers
/activate <id> - Start posting to a channel
/deactivate <id> - Stop posting to a channel
/status - Show posting statistics`

func (h *Handler) listChannels(ctx context.Context) string {
	overview, err := h.channels.Overview(ctx)
	if err != nil {
		slog.Error("Failed to list channels", "error", err)
		return fmt.Sprintf("❌ Failed to list channels: %v", err)
	}
	if len(overview) == 0 {
		return "📭 No channels added yet."
	}

	var text strings.Builder
	text.WriteString("📋 Channels:\n\n")
	for _, st := range overview {
		icon := "⏸️"
		if st.Scheduled {
			icon = "✅"
		}
		fmt.Fprintf(&text, "%s %d. %s → %s\n   every %s, %d file(s) pending\n",
			icon, st.Channel.ID, st.Channel.Name, st.Channel.ChatID, st.Channel.Every(), st.Pending)
		if !st.NextRun.IsZero() {
			fmt.Fprintf(&text, "   next run %s\n", st.NextRun.Format(time.DateTime))
		}
	}
	return text.String()
}

func (h *Handler) status(ctx context.Context) string {
	overview, err := h.channels.Overview(ctx)
	if err != nil {
		slog.Error("Failed to load status", "error", err)
		return fmt.Sprintf("❌ Failed to load status: %v", err)
	}

	var text strings.Builder
	active := 0
	for _, st := range overview {
		if st.Scheduled {
			active++
		}
	}
	fmt.Fprintf(&text, "📊 Status\n\nUptime: %s\nChannels: %d (%d active)\n",
		time.Since(h.startedAt).Round(time.Second), len(overview), active)

	for _, st := range overview {
		stats, err := h.posts.Stats(ctx, st.Channel.ID)
		if err != nil {
			slog.Error("Failed to load post stats", "channel_id", st.Channel.ID, "error", err)
			continue
		}
		fmt.Fprintf(&text, "\n%s: %d published, %d failed, %d rejected, %d pending",
			st.Channel.Name,
			stats[postDomain.PostStatusPublished],
			stats[postDomain.PostStatusFailed],
			stats[postDomain.PostStatusRejected],
			st.Pending)
	}
	return text.String()
}

func (h *Handler) toggle(ctx context.Context, parts []string, on bool) string {
	if len(parts) < 2 {
		return fmt.Sprintf("Usage: %s <channel_id>", parts[0])
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "❌ Invalid channel id"
	}

	if !on {
		if err := h.channels.Deactivate(ctx, id); err != nil {
			return fmt.Sprintf("❌ Failed to deactivate channel: %v", err)
		}
		return fmt.Sprintf("⏸️ Channel %d deactivated", id)
	}

	ch, err := h.channels.Activate(ctx, id)
	if errors.Is(err, errors.ErrChannelNotFound) {
		return fmt.Sprintf("❌ Channel not found: %d", id)
	}
	if err != nil {
		return fmt.Sprintf("❌ Failed to activate channel: %v", err)
	}
	return fmt.Sprintf("✅ Channel %s activated, posting every %s", ch.Name, ch.Every())
}
