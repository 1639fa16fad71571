package bot

import "github.com/bwmarrin/discordgo"

func commandDefinitions() []*discordgo.ApplicationCommand {
	adminOnly := int64(discordgo.PermissionAdministrator)

	channelOption := func(description string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: description,
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
				},
			},
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup_welcome",
			Description:              "Set or clear the welcome channel",
			DefaultMemberPermissions: &adminOnly,
			Options:                  channelOption("Channel for welcome messages (omit to clear)"),
		},
		{
			Name:                     "setup_leave",
			Description:              "Set or clear the leave channel",
			DefaultMemberPermissions: &adminOnly,
			Options:                  channelOption("Channel for leave messages (omit to clear)"),
		},
		{
			Name:                     "setup_qotd",
			Description:              "Set or clear the question of the day channel",
			DefaultMemberPermissions: &adminOnly,
			Options:                  channelOption("Channel for the daily question (omit to clear)"),
		},
		{
			Name:                     "setup_reportlog",
			Description:              "Set or clear the automod report channel",
			DefaultMemberPermissions: &adminOnly,
			Options:                  channelOption("Channel for automod alerts (omit to clear)"),
		},
		{
			Name:                     "setup_moderation",
			Description:              "Enable or disable profanity moderation",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Whether to moderate messages",
					Required:    true,
				},
			},
		},
		{
			Name:                     "setup_ai",
			Description:              "Enable or disable AI mention replies",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Whether the bot answers mentions",
					Required:    true,
				},
			},
		},
		{
			Name:                     "forceqotd",
			Description:              "Send the question of the day right now",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:                     "profanity_mode",
			Description:              "Toggle the built-in profanity word list",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "use_default",
					Description: "Whether the built-in word list applies",
					Required:    true,
				},
			},
		},
		{
			Name:                     "profanity_add",
			Description:              "Add a word to this server's profanity list",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "word",
					Description: "Word to block",
					Required:    true,
				},
			},
		},
		{
			Name:                     "profanity_remove",
			Description:              "Remove a word from this server's profanity list",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "word",
					Description: "Word to unblock",
					Required:    true,
				},
			},
		},
		{
			Name:                     "profanity_list",
			Description:              "Show this server's custom profanity words",
			DefaultMemberPermissions: &adminOnly,
		},
		{
			Name:        "leaderboard",
			Description: "Show the XP leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "How many entries to show (1-25)",
					MinValue:    &minLeaderboardLimit,
					MaxValue:    maxLeaderboardLimit,
				},
			},
		},
	}
}

var minLeaderboardLimit = float64(1)

const maxLeaderboardLimit = float64(25)

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	commands := commandDefinitions()

	if len(b.cfg.DevGuildIDs) > 0 {
		for _, guildID := range b.cfg.DevGuildIDs {
			if _, err := b.session.ApplicationCommandBulkOverwrite(appID, guildID, commands); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(appID, "", commands)
	return err
}
