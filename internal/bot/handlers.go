package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"infinitebot/internal/broadcast"
	"infinitebot/internal/leveling"
	"infinitebot/internal/pipeline"
	"infinitebot/internal/storage"
)

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("gateway ready",
		zap.String("user", event.User.Username),
		zap.Int("guilds", len(event.Guilds)),
	)
}

func (b *Bot) onMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Author == nil {
		return
	}
	botID := ""
	if session.State != nil && session.State.User != nil {
		botID = session.State.User.ID
	}
	mentionsBot := false
	for _, user := range event.Mentions {
		if user != nil && user.ID == botID {
			mentionsBot = true
			break
		}
	}
	b.pipeline.Process(context.Background(), pipeline.Inbound{
		GuildID:     event.GuildID,
		ChannelID:   event.ChannelID,
		MessageID:   event.ID,
		AuthorID:    event.Author.ID,
		Content:     event.Content,
		AuthorIsBot: event.Author.Bot,
		MentionsBot: mentionsBot,
	})
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.User == nil {
		return
	}
	ctx := context.Background()
	settings, err := b.store.GetOrCreateGuildSettings(ctx, event.GuildID)
	if err != nil {
		b.logger.Warn("settings lookup failed", zap.String("guild_id", event.GuildID), zap.Error(err))
		return
	}
	if settings.WelcomeChannelID == "" {
		return
	}
	if _, err := b.messenger.Send(settings.WelcomeChannelID, fmt.Sprintf("👋 Welcome <@%s>!", event.User.ID)); err != nil {
		b.logger.Warn("welcome message failed", zap.String("guild_id", event.GuildID), zap.Error(err))
	}
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.User == nil {
		return
	}
	ctx := context.Background()
	settings, err := b.store.GetOrCreateGuildSettings(ctx, event.GuildID)
	if err != nil {
		b.logger.Warn("settings lookup failed", zap.String("guild_id", event.GuildID), zap.Error(err))
		return
	}
	if settings.LeaveChannelID == "" {
		return
	}
	if _, err := b.messenger.Send(settings.LeaveChannelID, fmt.Sprintf("**%s** has left the server.", event.User.Username)); err != nil {
		b.logger.Warn("leave message failed", zap.String("guild_id", event.GuildID), zap.Error(err))
	}
}

func (b *Bot) onGuildCreate(session *discordgo.Session, event *discordgo.GuildCreate) {
	b.updatePresence()
}

func (b *Bot) onGuildDelete(session *discordgo.Session, event *discordgo.GuildDelete) {
	b.updatePresence()
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()

	if interaction.GuildID == "" {
		b.respond(session, interaction, "⚠ This command only works in a server.", true)
		return
	}

	switch data.Name {
	case "setup_welcome":
		b.handleChannelSetup(ctx, session, interaction, data.Options, storage.FieldWelcomeChannel, "welcome")
	case "setup_leave":
		b.handleChannelSetup(ctx, session, interaction, data.Options, storage.FieldLeaveChannel, "leave")
	case "setup_qotd":
		b.handleChannelSetup(ctx, session, interaction, data.Options, storage.FieldQOTDChannel, "question of the day")
	case "setup_reportlog":
		b.handleChannelSetup(ctx, session, interaction, data.Options, storage.FieldReportLogChannel, "report log")
	case "setup_moderation":
		b.handleToggle(ctx, session, interaction, data.Options, storage.FieldModerationEnabled, "Moderation")
	case "setup_ai":
		b.handleToggle(ctx, session, interaction, data.Options, storage.FieldAIEnabled, "AI replies")
	case "forceqotd":
		b.handleForceQOTD(ctx, session, interaction)
	case "profanity_mode":
		b.handleProfanityMode(ctx, session, interaction, data.Options)
	case "profanity_add":
		b.handleProfanityAdd(ctx, session, interaction, data.Options)
	case "profanity_remove":
		b.handleProfanityRemove(ctx, session, interaction, data.Options)
	case "profanity_list":
		b.handleProfanityList(ctx, session, interaction)
	case "leaderboard":
		b.handleLeaderboard(ctx, session, interaction, data.Options)
	}
}

func (b *Bot) handleChannelSetup(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption, field storage.SettingField, label string) {
	channelID := ""
	if len(options) > 0 {
		channel := options[0].ChannelValue(session)
		if channel == nil {
			b.respond(session, interaction, "⚠ Could not resolve that channel.", true)
			return
		}
		channelID = channel.ID
	}

	if err := b.store.UpdateGuildSetting(ctx, interaction.GuildID, field, channelID); err != nil {
		b.logger.Warn("setting update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to update the setting.", true)
		return
	}

	if channelID == "" {
		b.respond(session, interaction, fmt.Sprintf("✅ Cleared the %s channel.", label), true)
		return
	}
	b.respond(session, interaction, fmt.Sprintf("✅ Set the %s channel to <#%s>.", label, channelID), true)
}

func (b *Bot) handleToggle(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption, field storage.SettingField, label string) {
	if len(options) == 0 {
		b.respond(session, interaction, "⚠ Missing value.", true)
		return
	}
	enabled := options[0].BoolValue()

	if err := b.store.UpdateGuildSetting(ctx, interaction.GuildID, field, enabled); err != nil {
		b.logger.Warn("setting update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to update the setting.", true)
		return
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	b.respond(session, interaction, fmt.Sprintf("✅ %s %s.", label, state), true)
}

func (b *Bot) handleForceQOTD(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if err := b.broadcaster.ForceQOTD(ctx, interaction.GuildID); err != nil {
		if errors.Is(err, broadcast.ErrNotConfigured) {
			b.respond(session, interaction, "⚠ No question of the day channel is set for this server.", true)
			return
		}
		b.logger.Warn("forced qotd failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to send the question of the day.", true)
		return
	}
	b.respond(session, interaction, "✅ Question of the day sent.", true)
}

func (b *Bot) handleProfanityMode(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "⚠ Missing value.", true)
		return
	}
	useDefault := options[0].BoolValue()

	if err := b.filters.SetUseDefault(ctx, interaction.GuildID, useDefault); err != nil {
		b.logger.Warn("profanity mode update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to update the profanity mode.", true)
		return
	}

	if useDefault {
		b.respond(session, interaction, "✅ Built-in word list enabled.", true)
		return
	}
	b.respond(session, interaction, "✅ Built-in word list disabled. Only custom words apply.", true)
}

func (b *Bot) handleProfanityAdd(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "⚠ Missing word.", true)
		return
	}
	word := strings.TrimSpace(options[0].StringValue())
	if word == "" {
		b.respond(session, interaction, "⚠ Missing word.", true)
		return
	}

	if err := b.filters.AddWord(ctx, interaction.GuildID, word); err != nil {
		b.logger.Warn("profanity add failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to add the word.", true)
		return
	}
	b.respond(session, interaction, fmt.Sprintf("✅ Added `%s` to the profanity list.", strings.ToLower(word)), true)
}

func (b *Bot) handleProfanityRemove(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		b.respond(session, interaction, "⚠ Missing word.", true)
		return
	}
	word := strings.TrimSpace(options[0].StringValue())
	if word == "" {
		b.respond(session, interaction, "⚠ Missing word.", true)
		return
	}

	if err := b.filters.RemoveWord(ctx, interaction.GuildID, word); err != nil {
		b.logger.Warn("profanity remove failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to remove the word.", true)
		return
	}
	b.respond(session, interaction, fmt.Sprintf("✅ Removed `%s` from the profanity list.", strings.ToLower(word)), true)
}

func (b *Bot) handleProfanityList(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	words, useDefault, err := b.filters.GuildWords(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Warn("profanity list failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to load the profanity list.", true)
		return
	}

	mode := "built-in list off"
	if useDefault {
		mode = "built-in list on"
	}
	if len(words) == 0 {
		b.respond(session, interaction, fmt.Sprintf("No custom words (%s).", mode), true)
		return
	}
	b.respond(session, interaction, fmt.Sprintf("Custom words (%s): `%s`", mode, strings.Join(words, "`, `")), true)
}

func (b *Bot) handleLeaderboard(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	limit := 10
	if len(options) > 0 {
		limit = int(options[0].IntValue())
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 25 {
		limit = 25
	}

	rows, err := b.store.Leaderboard(ctx, interaction.GuildID, limit)
	if err != nil {
		b.logger.Warn("leaderboard query failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respond(session, interaction, "⚠ Failed to load the leaderboard.", true)
		return
	}
	if len(rows) == 0 {
		b.respond(session, interaction, "No one has earned XP yet.", false)
		return
	}

	var sb strings.Builder
	sb.WriteString("**XP Leaderboard**\n")
	for i, row := range rows {
		fmt.Fprintf(&sb, "%d. %s — Level %d (%d XP)\n", i+1, b.memberName(session, interaction.GuildID, row.UserID), leveling.Level(row.XP), row.XP)
	}
	b.respond(session, interaction, sb.String(), false)
}

func (b *Bot) memberName(session *discordgo.Session, guildID, userID string) string {
	member, err := session.GuildMember(guildID, userID)
	if err != nil || member == nil || member.User == nil {
		return "User " + userID
	}
	if member.Nick != "" {
		return member.Nick
	}
	return member.User.Username
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		b.logger.Warn("interaction response failed", zap.Error(err))
	}
}
