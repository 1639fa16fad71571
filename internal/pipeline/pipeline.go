// Package pipeline processes every inbound guild message through the XP,
// moderation, and AI-mention steps in a fixed order with per-step failure
// isolation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"infinitebot/internal/ai"
	"infinitebot/internal/leveling"
	"infinitebot/internal/modlog"
	"infinitebot/internal/profanity"
	"infinitebot/internal/storage"
)

const (
	warnRemovalDelay = 5 * time.Second

	emptyMentionReply = "You mentioned me, but didn't ask anything."
	blockedReply      = "Apparently, our AI tried to curse — this is strictly blocked by the developer team of InfiniteBot.\n\nThink this is wrong? Open an issue on https://github.com/OptimiDEV/InfiniteBot/issues"
	generationFailure = "Error generating response: `GENRESPONSE-EFILL`"
)

// Messenger is the outbound-delivery capability of the chat platform.
type Messenger interface {
	Send(channelID, content string) (messageID string, err error)
	Delete(channelID, messageID string) error
	Reply(channelID, messageID, content string) error
}

// Generator produces a moderated-by-caller text reply.
type Generator interface {
	Reply(ctx context.Context, systemRules, userQuery string) (string, error)
}

// Inbound is one message as observed on the stream.
type Inbound struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	AuthorID    string
	Content     string
	AuthorIsBot bool
	MentionsBot bool
}

type Pipeline struct {
	store     *storage.Store
	filters   *profanity.Engine
	ledger    *leveling.Ledger
	responder Generator
	messenger Messenger
	reporter  *modlog.Reporter
	logger    *zap.Logger
	botUserID string
	warnDelay time.Duration
}

func New(store *storage.Store, filters *profanity.Engine, ledger *leveling.Ledger, responder Generator, messenger Messenger, reporter *modlog.Reporter, logger *zap.Logger, botUserID string) *Pipeline {
	return &Pipeline{
		store:     store,
		filters:   filters,
		ledger:    ledger,
		responder: responder,
		messenger: messenger,
		reporter:  reporter,
		logger:    logger,
		botUserID: botUserID,
		warnDelay: warnRemovalDelay,
	}
}

// SetWarnDelay overrides the transient-warning removal delay.
func (p *Pipeline) SetWarnDelay(delay time.Duration) {
	p.warnDelay = delay
}

// Process runs the full step list for one message. No failure escapes: a
// storage hiccup or backend outage degrades to a logged skip or an apology
// for this message only.
func (p *Pipeline) Process(ctx context.Context, msg Inbound) {
	if msg.GuildID == "" || msg.AuthorIsBot || msg.AuthorID == p.botUserID {
		return
	}

	settings, err := p.store.GetOrCreateGuildSettings(ctx, msg.GuildID)
	if err != nil {
		p.logger.Warn("guild settings unavailable",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
		return
	}

	p.awardXP(ctx, msg)

	if settings.ModerationEnabled {
		if p.moderate(ctx, msg, settings) {
			return
		}
	}

	if settings.AIEnabled && msg.MentionsBot {
		p.answerMention(ctx, msg)
	}
}

// awardXP grants 1 XP and announces a level-up edge. Runs regardless of the
// moderation and AI toggles; its failures never abort later steps.
func (p *Pipeline) awardXP(ctx context.Context, msg Inbound) {
	awarded, err := p.ledger.Award(ctx, msg.GuildID, msg.AuthorID, 1)
	if err != nil {
		p.logger.Warn("xp award failed",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.AuthorID),
			zap.Error(err),
		)
		return
	}
	if awarded.LeveledUp() {
		notice := fmt.Sprintf("🎉 <@%s> Reached Level %d!", msg.AuthorID, awarded.NewLevel)
		if _, err := p.messenger.Send(msg.ChannelID, notice); err != nil {
			p.logger.Warn("level-up notice failed",
				zap.String("guild_id", msg.GuildID),
				zap.Error(err),
			)
		}
	}
}

// moderate rebuilds the guild filter and, on a match, deletes the message,
// posts a transient warning, and alerts the report-log channel. Returns true
// when processing for this message must stop.
func (p *Pipeline) moderate(ctx context.Context, msg Inbound, settings storage.GuildSettings) bool {
	filter, err := p.filters.BuildFilter(ctx, msg.GuildID)
	if err != nil {
		p.logger.Warn("filter build failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
		return false
	}
	if !filter.Check(msg.Content) {
		return false
	}

	if err := p.messenger.Delete(msg.ChannelID, msg.MessageID); err != nil {
		p.logger.Warn("message delete failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
	}

	warning := fmt.Sprintf("<@%s> 🚫 Inappropriate language detected.", msg.AuthorID)
	if warnID, err := p.messenger.Send(msg.ChannelID, warning); err != nil {
		p.logger.Warn("warning delivery failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
	} else {
		p.scheduleRemoval(msg.ChannelID, warnID)
	}

	p.reporter.Alert(ctx, msg.GuildID, settings.ReportLogChannelID, msg.AuthorID, msg.Content)
	return true
}

// scheduleRemoval deletes a transient message after the configured delay as
// a detached task. Deletion failure is silently ignored.
func (p *Pipeline) scheduleRemoval(channelID, messageID string) {
	go func() {
		time.Sleep(p.warnDelay)
		_ = p.messenger.Delete(channelID, messageID)
	}()
}

// answerMention strips the mention tokens and replies, passing the generated
// text back through the guild's profanity filter before delivery.
func (p *Pipeline) answerMention(ctx context.Context, msg Inbound) {
	cleaned := strings.TrimSpace(p.stripMentions(msg.Content))
	if cleaned == "" {
		p.reply(msg, emptyMentionReply)
		return
	}

	generated, err := p.responder.Reply(ctx, ai.SystemRules, cleaned)
	if err != nil {
		p.logger.Warn("reply generation failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
		p.reply(msg, generationFailure)
		return
	}

	filter, err := p.filters.BuildFilter(ctx, msg.GuildID)
	if err != nil {
		p.logger.Warn("output filter build failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
		p.reply(msg, generationFailure)
		return
	}
	if filter.Check(generated) {
		p.reply(msg, blockedReply)
		return
	}
	p.reply(msg, generated)
}

func (p *Pipeline) reply(msg Inbound, content string) {
	if err := p.messenger.Reply(msg.ChannelID, msg.MessageID, content); err != nil {
		p.logger.Warn("reply delivery failed",
			zap.String("guild_id", msg.GuildID),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) stripMentions(content string) string {
	content = strings.ReplaceAll(content, "<@"+p.botUserID+">", "")
	content = strings.ReplaceAll(content, "<@!"+p.botUserID+">", "")
	return content
}
