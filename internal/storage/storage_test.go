package storage

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestGetOrCreateGuildSettingsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateGuildSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	second, err := store.GetOrCreateGuildSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if first != second {
		t.Fatalf("rows differ: %+v vs %+v", first, second)
	}
	if !first.ModerationEnabled || !first.AIEnabled {
		t.Fatalf("expected moderation and ai enabled by default, got %+v", first)
	}
	if first.QOTDChannelID != "" || first.ReportLogChannelID != "" {
		t.Fatalf("expected no channels configured by default, got %+v", first)
	}
}

func TestUpdateGuildSetting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpdateGuildSetting(ctx, "g1", FieldQOTDChannel, "c42"); err != nil {
		t.Fatalf("update qotd channel: %v", err)
	}
	if err := store.UpdateGuildSetting(ctx, "g1", FieldModerationEnabled, false); err != nil {
		t.Fatalf("update moderation toggle: %v", err)
	}

	got, err := store.GetOrCreateGuildSettings(ctx, "g1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.QOTDChannelID != "c42" {
		t.Fatalf("expected qotd channel c42, got %q", got.QOTDChannelID)
	}
	if got.ModerationEnabled {
		t.Fatalf("expected moderation disabled")
	}
}

func TestUpdateGuildSettingInvalidField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpdateGuildSetting(ctx, "g1", SettingField(99), "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if err := store.UpdateGuildSetting(ctx, "g1", FieldAIEnabled, "not-a-bool"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for type mismatch, got %v", err)
	}
	if err := store.UpdateGuildSetting(ctx, "g1", FieldWelcomeChannel, true); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for type mismatch, got %v", err)
	}
}

func TestProfanitySettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	initial, err := store.GetOrCreateProfanitySettings(ctx, "g1")
	if err != nil {
		t.Fatalf("get-or-create profanity settings: %v", err)
	}
	if !initial.UseDefault || len(initial.AddedWords) != 0 {
		t.Fatalf("unexpected defaults: %+v", initial)
	}

	initial.AddedWords = []string{"gronk", "blarf"}
	initial.UseDefault = false
	if err := store.UpsertProfanitySettings(ctx, initial); err != nil {
		t.Fatalf("upsert profanity settings: %v", err)
	}

	got, err := store.GetOrCreateProfanitySettings(ctx, "g1")
	if err != nil {
		t.Fatalf("reread profanity settings: %v", err)
	}
	if got.UseDefault {
		t.Fatalf("expected use_default false")
	}
	if len(got.AddedWords) != 2 || got.AddedWords[0] != "gronk" || got.AddedWords[1] != "blarf" {
		t.Fatalf("unexpected added words: %v", got.AddedWords)
	}
}

func TestUserXPUpsertAndLeaderboard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	row, err := store.GetOrCreateUserXP(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("get-or-create user xp: %v", err)
	}
	if row.XP != 0 || row.Level != 0 {
		t.Fatalf("expected zeroed row, got %+v", row)
	}

	rows := []UserXP{
		{GuildID: "g1", UserID: "u1", XP: 150, Level: 1},
		{GuildID: "g1", UserID: "u2", XP: 400, Level: 2},
		{GuildID: "g1", UserID: "u3", XP: 20, Level: 0},
		{GuildID: "g2", UserID: "u9", XP: 999, Level: 3},
	}
	for _, r := range rows {
		if err := store.UpsertUserXP(ctx, r); err != nil {
			t.Fatalf("upsert %s/%s: %v", r.GuildID, r.UserID, err)
		}
	}

	board, err := store.Leaderboard(ctx, "g1", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].UserID != "u2" || board[1].UserID != "u1" {
		t.Fatalf("unexpected ordering: %+v", board)
	}
}
