package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"infinitebot/internal/ai"
	"infinitebot/internal/broadcast"
	"infinitebot/internal/config"
	"infinitebot/internal/leveling"
	"infinitebot/internal/modlog"
	"infinitebot/internal/pipeline"
	"infinitebot/internal/profanity"
	"infinitebot/internal/storage"
)

type Bot struct {
	cfg         config.Config
	logger      *zap.Logger
	store       *storage.Store
	filters     *profanity.Engine
	ledger      *leveling.Ledger
	responder   *ai.Client
	session     *discordgo.Session
	messenger   *sessionMessenger
	pipeline    *pipeline.Pipeline
	broadcaster *broadcast.Broadcaster
	presenceEnd chan struct{}
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, filters *profanity.Engine, ledger *leveling.Ledger, responder *ai.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers

	return &Bot{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		filters:     filters,
		ledger:      ledger,
		responder:   responder,
		session:     session,
		presenceEnd: make(chan struct{}),
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)

	if err := b.session.Open(); err != nil {
		return err
	}

	b.messenger = &sessionMessenger{session: b.session}
	reporter := modlog.NewReporter(b.messenger, b.logger)
	b.pipeline = pipeline.New(b.store, b.filters, b.ledger, b.responder, b.messenger, reporter, b.logger, b.session.State.User.ID)

	b.broadcaster = broadcast.New(b.store, b.responder, b.messenger, b, b.logger, b.cfg.QOTDCron)
	if err := b.broadcaster.Start(); err != nil {
		return err
	}

	// event handlers attach only once everything they touch is wired;
	// discordgo dispatches on its own goroutines
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.updatePresence()
	b.startPresenceLoop()

	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	close(b.presenceEnd)
	if b.broadcaster != nil {
		b.broadcaster.Stop()
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

// GuildIDs lists the guilds currently tracked by the gateway session.
func (b *Bot) GuildIDs() []string {
	if b.session == nil || b.session.State == nil {
		return nil
	}
	ids := make([]string, 0, len(b.session.State.Guilds))
	for _, guild := range b.session.State.Guilds {
		if guild != nil {
			ids = append(ids, guild.ID)
		}
	}
	return ids
}

func (b *Bot) startPresenceLoop() {
	interval := time.Duration(b.cfg.StatusIntervalMinutes) * time.Minute
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.updatePresence()
			case <-b.presenceEnd:
				return
			}
		}
	}()
}

func (b *Bot) updatePresence() {
	count := len(b.GuildIDs())
	if err := b.session.UpdateWatchStatus(0, fmt.Sprintf("%d servers", count)); err != nil {
		b.logger.Warn("presence update failed", zap.Error(err))
	}
}

// sessionMessenger adapts the gateway session to the delivery capabilities
// the pipeline, report log, and broadcaster consume.
type sessionMessenger struct {
	session *discordgo.Session
}

func (m *sessionMessenger) Send(channelID, content string) (string, error) {
	msg, err := m.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *sessionMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := m.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (m *sessionMessenger) Delete(channelID, messageID string) error {
	return m.session.ChannelMessageDelete(channelID, messageID)
}

func (m *sessionMessenger) Reply(channelID, messageID, content string) error {
	_, err := m.session.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		ChannelID: channelID,
		MessageID: messageID,
	})
	return err
}
