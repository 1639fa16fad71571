package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"infinitebot/internal/ai"
	"infinitebot/internal/leveling"
	"infinitebot/internal/modlog"
	"infinitebot/internal/profanity"
	"infinitebot/internal/storage"
)

var _ Generator = (*ai.Client)(nil)

type sentMessage struct {
	channelID string
	content   string
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	replies []sentMessage
	deleted []string
	embeds  []sentMessage
	nextID  int
	sendErr error
}

func (m *fakeMessenger) Send(channelID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{channelID, content})
	return fmt.Sprintf("m%d", m.nextID), nil
}

func (m *fakeMessenger) Delete(channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, channelID+"/"+messageID)
	return nil
}

func (m *fakeMessenger) Reply(channelID, messageID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sentMessage{channelID, content})
	return nil
}

func (m *fakeMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := embed.Title
	for _, field := range embed.Fields {
		content += "|" + field.Value
	}
	m.embeds = append(m.embeds, sentMessage{channelID, content})
	return nil
}

func (m *fakeMessenger) deletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deleted)
}

func (m *fakeMessenger) deletedSnapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

type fakeGenerator struct {
	calls int
	reply string
	err   error
}

func (g *fakeGenerator) Reply(ctx context.Context, systemRules, userQuery string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestPipeline(t *testing.T, gen *fakeGenerator) (*Pipeline, *fakeMessenger, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	messenger := &fakeMessenger{}
	logger := zap.NewNop()
	engine := profanity.NewEngine(store, profanity.LoadDefaultVocabulary())
	p := New(store, engine, leveling.NewLedger(store), gen, messenger, modlog.NewReporter(messenger, logger), logger, "bot1")
	p.SetWarnDelay(time.Millisecond)
	return p, messenger, store
}

func inbound(content string) Inbound {
	return Inbound{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: "msg1",
		AuthorID:  "u1",
		Content:   content,
	}
}

func TestIgnoresNonGuildAndBotMessages(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, _ := newTestPipeline(t, gen)
	ctx := context.Background()

	dm := inbound("hello")
	dm.GuildID = ""
	p.Process(ctx, dm)

	fromBot := inbound("hello")
	fromBot.AuthorIsBot = true
	p.Process(ctx, fromBot)

	fromSelf := inbound("hello")
	fromSelf.AuthorID = "bot1"
	p.Process(ctx, fromSelf)

	if len(messenger.sent) != 0 || len(messenger.replies) != 0 || gen.calls != 0 {
		t.Fatalf("expected no effects, got sent=%d replies=%d calls=%d",
			len(messenger.sent), len(messenger.replies), gen.calls)
	}
}

func TestModerationDeletesWarnsAndAlerts(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, store := newTestPipeline(t, gen)
	ctx := context.Background()

	if err := store.UpdateGuildSetting(ctx, "g1", storage.FieldReportLogChannel, "log1"); err != nil {
		t.Fatalf("configure report log: %v", err)
	}

	msg := inbound("this is shit")
	msg.MentionsBot = true // moderation terminates before the AI step
	p.Process(ctx, msg)

	if deleted := messenger.deletedSnapshot(); len(deleted) == 0 || deleted[0] != "c1/msg1" {
		t.Fatalf("expected original message deleted, got %v", deleted)
	}

	foundWarning := false
	for _, sent := range messenger.sent {
		if sent.channelID == "c1" && strings.Contains(sent.content, "Inappropriate language") {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected transient warning, got %v", messenger.sent)
	}

	if len(messenger.embeds) != 1 || messenger.embeds[0].channelID != "log1" {
		t.Fatalf("expected one alert embed in log1, got %v", messenger.embeds)
	}
	if !strings.Contains(messenger.embeds[0].content, "Automod Alert") ||
		!strings.Contains(messenger.embeds[0].content, "<@u1>") {
		t.Fatalf("alert embed missing author or title: %v", messenger.embeds[0])
	}

	if gen.calls != 0 {
		t.Fatalf("AI step must not run after a moderation match")
	}
	if len(messenger.replies) != 0 {
		t.Fatalf("no reply expected, got %v", messenger.replies)
	}

	// transient warning removal is a detached task
	deadline := time.Now().Add(time.Second)
	for messenger.deletedCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if messenger.deletedCount() < 2 {
		t.Fatalf("expected warning to be removed, deletions: %v", messenger.deletedSnapshot())
	}
}

func TestWarningSendFailureDoesNotAbortModeration(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, store := newTestPipeline(t, gen)
	ctx := context.Background()

	if err := store.UpdateGuildSetting(ctx, "g1", storage.FieldReportLogChannel, "log1"); err != nil {
		t.Fatalf("configure report log: %v", err)
	}
	messenger.sendErr = errors.New("channel gone")

	p.Process(ctx, inbound("this is shit"))

	if deleted := messenger.deletedSnapshot(); len(deleted) != 1 || deleted[0] != "c1/msg1" {
		t.Fatalf("expected only the original message deleted, got %v", deleted)
	}
	if len(messenger.embeds) != 1 || messenger.embeds[0].channelID != "log1" {
		t.Fatalf("expected alert despite warning failure, got %v", messenger.embeds)
	}
}

func TestModerationDisabledSkipsFilter(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, store := newTestPipeline(t, gen)
	ctx := context.Background()

	if err := store.UpdateGuildSetting(ctx, "g1", storage.FieldModerationEnabled, false); err != nil {
		t.Fatalf("disable moderation: %v", err)
	}

	p.Process(ctx, inbound("this is shit"))
	if len(messenger.deleted) != 0 {
		t.Fatalf("expected no deletions with moderation off, got %v", messenger.deleted)
	}
}

func TestEmptyMentionGetsFixedReplyWithoutGeneration(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, _ := newTestPipeline(t, gen)
	ctx := context.Background()

	msg := inbound("<@bot1>")
	msg.MentionsBot = true
	p.Process(ctx, msg)

	if gen.calls != 0 {
		t.Fatalf("expected no generation call, got %d", gen.calls)
	}
	if len(messenger.replies) != 1 || messenger.replies[0].content != emptyMentionReply {
		t.Fatalf("expected fixed empty-mention reply, got %v", messenger.replies)
	}
}

func TestMentionReplyDelivered(t *testing.T) {
	gen := &fakeGenerator{reply: "the answer is 42"}
	p, messenger, _ := newTestPipeline(t, gen)
	ctx := context.Background()

	msg := inbound("<@!bot1> what is the answer?")
	msg.MentionsBot = true
	p.Process(ctx, msg)

	if gen.calls != 1 {
		t.Fatalf("expected one generation call, got %d", gen.calls)
	}
	if len(messenger.replies) != 1 || messenger.replies[0].content != "the answer is 42" {
		t.Fatalf("expected generated reply, got %v", messenger.replies)
	}
}

func TestProfaneGeneratedReplyIsSuppressed(t *testing.T) {
	gen := &fakeGenerator{reply: "well, shit happens"}
	p, messenger, _ := newTestPipeline(t, gen)
	ctx := context.Background()

	msg := inbound("<@bot1> tell me something")
	msg.MentionsBot = true
	p.Process(ctx, msg)

	if len(messenger.replies) != 1 || messenger.replies[0].content != blockedReply {
		t.Fatalf("expected suppression disclosure, got %v", messenger.replies)
	}
}

func TestGenerationFailureYieldsApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend down")}
	p, messenger, _ := newTestPipeline(t, gen)
	ctx := context.Background()

	msg := inbound("<@bot1> hello?")
	msg.MentionsBot = true
	p.Process(ctx, msg)

	if len(messenger.replies) != 1 || messenger.replies[0].content != generationFailure {
		t.Fatalf("expected apology, got %v", messenger.replies)
	}
}

func TestLevelUpNotification(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	p, messenger, store := newTestPipeline(t, gen)
	ctx := context.Background()

	// seed just below the level-1 boundary (100 XP)
	if err := store.UpsertUserXP(ctx, storage.UserXP{GuildID: "g1", UserID: "u1", XP: 99, Level: 0}); err != nil {
		t.Fatalf("seed xp: %v", err)
	}

	p.Process(ctx, inbound("a perfectly normal message"))

	found := false
	for _, sent := range messenger.sent {
		if strings.Contains(sent.content, "Reached Level 1") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected level-up notice, got %v", messenger.sent)
	}
}
