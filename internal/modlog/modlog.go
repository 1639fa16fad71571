// Package modlog records moderation actions and posts structured alerts to
// a guild's report-log channel when one is configured.
package modlog

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const alertColor = 0xFFA500

// EmbedSender delivers an embed to a channel.
type EmbedSender interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

type Reporter struct {
	sender EmbedSender
	logger *zap.Logger
}

func NewReporter(sender EmbedSender, logger *zap.Logger) *Reporter {
	return &Reporter{sender: sender, logger: logger}
}

// Alert logs a profanity detection and, when channelID is set, posts the
// Automod Alert embed naming the author and the offending content. Delivery
// failures are logged, never propagated.
func (r *Reporter) Alert(ctx context.Context, guildID, channelID, authorID, content string) {
	_ = ctx
	r.logger.Info("automod alert",
		zap.String("guild_id", guildID),
		zap.String("user_id", authorID),
	)
	if channelID == "" {
		return
	}

	if content == "" {
		content = "[No content]"
	}
	embed := &discordgo.MessageEmbed{
		Title: "Automod Alert",
		Color: alertColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + authorID + ">", Inline: false},
			{Name: "Content", Value: content, Inline: false},
		},
	}
	if err := r.sender.SendEmbed(channelID, embed); err != nil {
		r.logger.Warn("automod alert delivery failed",
			zap.String("guild_id", guildID),
			zap.Error(err),
		)
	}
}
