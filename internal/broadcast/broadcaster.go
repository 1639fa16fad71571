// Package broadcast delivers the question of the day: a scheduled
// fleet-wide fan-out plus a forced single-guild path.
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"infinitebot/internal/storage"
)

// ErrNotConfigured is returned when a guild has no QOTD channel set.
var ErrNotConfigured = errors.New("no qotd channel configured")

// Questioner generates the daily prompt text.
type Questioner interface {
	Question(ctx context.Context) (string, error)
}

// Sender delivers a message to a channel.
type Sender interface {
	Send(channelID, content string) (messageID string, err error)
}

// GuildLister enumerates the guilds currently known to the session.
type GuildLister interface {
	GuildIDs() []string
}

type Broadcaster struct {
	store      *storage.Store
	questioner Questioner
	sender     Sender
	guilds     GuildLister
	logger     *zap.Logger
	schedule   string
	cron       *cron.Cron
}

func New(store *storage.Store, questioner Questioner, sender Sender, guilds GuildLister, logger *zap.Logger, schedule string) *Broadcaster {
	return &Broadcaster{
		store:      store,
		questioner: questioner,
		sender:     sender,
		guilds:     guilds,
		logger:     logger,
		schedule:   schedule,
	}
}

// Start registers the daily trigger and begins the schedule.
func (b *Broadcaster) Start() error {
	b.cron = cron.New()
	if _, err := b.cron.AddFunc(b.schedule, b.RunOnce); err != nil {
		return fmt.Errorf("invalid qotd schedule %q: %w", b.schedule, err)
	}
	b.cron.Start()
	return nil
}

func (b *Broadcaster) Stop() {
	if b.cron != nil {
		b.cron.Stop()
	}
}

// RunOnce iterates every known guild and delivers today's prompt to those
// with a QOTD channel. Each guild's failure is logged and isolated; one
// guild never blocks the rest of the run.
func (b *Broadcaster) RunOnce() {
	ctx := context.Background()
	for _, guildID := range b.guilds.GuildIDs() {
		if err := b.Deliver(ctx, guildID); err != nil {
			if errors.Is(err, ErrNotConfigured) {
				continue
			}
			b.logger.Warn("qotd delivery failed",
				zap.String("guild_id", guildID),
				zap.Error(err),
			)
		}
	}
}

// ForceQOTD delivers today's prompt to one guild immediately. Returns
// ErrNotConfigured, without a generation call, when the channel is unset.
func (b *Broadcaster) ForceQOTD(ctx context.Context, guildID string) error {
	return b.Deliver(ctx, guildID)
}

func (b *Broadcaster) Deliver(ctx context.Context, guildID string) error {
	settings, err := b.store.GetOrCreateGuildSettings(ctx, guildID)
	if err != nil {
		return fmt.Errorf("resolve settings: %w", err)
	}
	if settings.QOTDChannelID == "" {
		return ErrNotConfigured
	}

	question, err := b.questioner.Question(ctx)
	if err != nil {
		return fmt.Errorf("generate question: %w", err)
	}
	if _, err := b.sender.Send(settings.QOTDChannelID, "**Question of the Day:**\n> "+question); err != nil {
		return fmt.Errorf("send question: %w", err)
	}
	return nil
}
