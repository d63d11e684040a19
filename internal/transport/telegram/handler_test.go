package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	channelService "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/service"
	postDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

type stubChannels struct {
	channels    map[int64]*channelDomain.Channel
	deactivated []int64
}

func (s *stubChannels) Activate(_ context.Context, id int64) (*channelDomain.Channel, error) {
	ch, ok := s.channels[id]
	if !ok {
		return nil, errors.ErrChannelNotFound
	}
	ch.Active = true
	return ch, nil
}

func (s *stubChannels) Deactivate(_ context.Context, id int64) error {
	s.deactivated = append(s.deactivated, id)
	if ch, ok := s.channels[id]; ok {
		ch.Active = false
	}
	return nil
}

func (s *stubChannels) Overview(context.Context) ([]channelService.Status, error) {
	var out []channelService.Status
	for id := int64(1); id <= int64(len(s.channels)); id++ {
		ch := s.channels[id]
		out = append(out, channelService.Status{Channel: ch, Scheduled: ch.Active, Pending: 2})
	}
	return out, nil
}

type stubStats map[postDomain.PostStatus]int

func (s stubStats) Stats(context.Context, int64) (map[postDomain.PostStatus]int, error) {
	return s, nil
}

type allowList struct{}

func (allowList) IsAuthorized(userID int64, allowed []int64) bool {
	for _, id := range allowed {
		if id == userID {
			return true
		}
	}
	return len(allowed) == 0
}

func newHandler() (*Handler, *stubChannels) {
	channels := &stubChannels{channels: map[int64]*channelDomain.Channel{
		1: {ID: 1, Name: "News", ChatID: "@news", Interval: 300, Active: true},
		2: {ID: 2, Name: "Cats", ChatID: "@cats", Interval: 60},
	}}
	stats := stubStats{postDomain.PostStatusPublished: 4, postDomain.PostStatusFailed: 1}
	return New(channels, stats, allowList{}, []int64{42}), channels
}

func TestExecuteRejectsStrangers(t *testing.T) {
	h, _ := newHandler()
	assert.Contains(t, h.Execute(context.Background(), 7, "/channels"), "not authorized")
}

func TestExecuteHelp(t *testing.T) {
	h, _ := newHandler()
	assert.Equal(t, helpText, h.Execute(context.Background(), 42, "/start"))
	assert.Equal(t, helpText, h.Execute(context.Background(), 42, "/help@autoposter_bot"))
	assert.Contains(t, h.Execute(context.Background(), 42, "/nope"), "Unknown command")
}

func TestExecuteChannels(t *testing.T) {
	h, _ := newHandler()
	reply := h.Execute(context.Background(), 42, "/channels")
	assert.Contains(t, reply, "✅ 1. News → @news")
	assert.Contains(t, reply, "every 5m0s, 2 file(s) pending")
	assert.Contains(t, reply, "⏸️ 2. Cats → @cats")
}

func TestExecuteToggle(t *testing.T) {
	ctx := context.Background()
	h, channels := newHandler()

	assert.Contains(t, h.Execute(ctx, 42, "/activate 2"), "Channel Cats activated, posting every 1m0s")
	assert.True(t, channels.channels[2].Active)

	assert.Contains(t, h.Execute(ctx, 42, "/activate 9"), "Channel not found: 9")
	assert.Contains(t, h.Execute(ctx, 42, "/activate"), "Usage: /activate <channel_id>")
	assert.Contains(t, h.Execute(ctx, 42, "/deactivate x"), "Invalid channel id")

	assert.Contains(t, h.Execute(ctx, 42, "/deactivate 1"), "Channel 1 deactivated")
	assert.Equal(t, []int64{1}, channels.deactivated)
}

func TestExecuteStatus(t *testing.T) {
	h, _ := newHandler()
	reply := h.Execute(context.Background(), 42, "/status")
	assert.Contains(t, reply, "Channels: 2 (1 active)")
	assert.Contains(t, reply, "News: 4 published, 1 failed, 0 rejected, 2 pending")
}
