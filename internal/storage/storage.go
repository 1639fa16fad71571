package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrInvalidField is returned when an update targets a field outside the
// allow-listed set. Field names never reach SQL without passing this gate.
var ErrInvalidField = errors.New("invalid settings field")

type Store struct {
	db *sql.DB
}

// GuildSettings is the per-guild configuration row. Empty channel IDs mean
// the corresponding feature is not configured.
type GuildSettings struct {
	GuildID            string
	WelcomeChannelID   string
	LeaveChannelID     string
	QOTDChannelID      string
	ReportLogChannelID string
	ModerationEnabled  bool
	AIEnabled          bool
}

// ProfanitySettings is the per-guild word-filter row. AddedWords holds
// lowercase words in insertion order with no duplicates.
type ProfanitySettings struct {
	GuildID    string
	AddedWords []string
	UseDefault bool
}

type UserXP struct {
	GuildID string
	UserID  string
	XP      int
	Level   int
}

// SettingField enumerates the single-field updates allowed on
// guild_settings. Anything outside this set fails with ErrInvalidField.
type SettingField int

const (
	FieldWelcomeChannel SettingField = iota
	FieldLeaveChannel
	FieldQOTDChannel
	FieldReportLogChannel
	FieldModerationEnabled
	FieldAIEnabled
)

func (f SettingField) column() (string, bool) {
	switch f {
	case FieldWelcomeChannel:
		return "welcome_channel_id", true
	case FieldLeaveChannel:
		return "leave_channel_id", true
	case FieldQOTDChannel:
		return "qotd_channel_id", true
	case FieldReportLogChannel:
		return "report_log_channel_id", true
	case FieldModerationEnabled:
		return "moderation_enabled", true
	case FieldAIEnabled:
		return "ai_enabled", true
	default:
		return "", false
	}
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

// GetOrCreateGuildSettings returns the guild's settings row, inserting the
// defaults first if the guild has never been seen. INSERT OR IGNORE keeps
// concurrent first access safe: the loser of the race reads the winner's row.
func (s *Store) GetOrCreateGuildSettings(ctx context.Context, guildID string) (GuildSettings, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO guild_settings (guild_id) VALUES (?)`, guildID); err != nil {
		return GuildSettings{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT welcome_channel_id, leave_channel_id, qotd_channel_id,
		report_log_channel_id, moderation_enabled, ai_enabled
		FROM guild_settings WHERE guild_id = ?`, guildID)

	result := GuildSettings{GuildID: guildID}
	var moderation, ai int
	if err := row.Scan(
		&result.WelcomeChannelID,
		&result.LeaveChannelID,
		&result.QOTDChannelID,
		&result.ReportLogChannelID,
		&moderation,
		&ai,
	); err != nil {
		return GuildSettings{}, err
	}
	result.ModerationEnabled = moderation == 1
	result.AIEnabled = ai == 1
	return result, nil
}

// UpdateGuildSetting writes exactly one allow-listed field. The value must be
// a string for channel fields or a bool for toggles.
func (s *Store) UpdateGuildSetting(ctx context.Context, guildID string, field SettingField, value any) error {
	column, ok := field.column()
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidField, field)
	}

	var stored any
	switch v := value.(type) {
	case string:
		if field == FieldModerationEnabled || field == FieldAIEnabled {
			return fmt.Errorf("%w: %s expects bool", ErrInvalidField, column)
		}
		stored = v
	case bool:
		if field != FieldModerationEnabled && field != FieldAIEnabled {
			return fmt.Errorf("%w: %s expects string", ErrInvalidField, column)
		}
		stored = boolToInt(v)
	default:
		return fmt.Errorf("%w: unsupported value type", ErrInvalidField)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO guild_settings (guild_id) VALUES (?)`, guildID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE guild_settings SET `+column+` = ? WHERE guild_id = ?`, stored, guildID)
	return err
}

func (s *Store) GetOrCreateProfanitySettings(ctx context.Context, guildID string) (ProfanitySettings, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO profanity_settings (guild_id) VALUES (?)`, guildID); err != nil {
		return ProfanitySettings{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT added_words, use_default FROM profanity_settings WHERE guild_id = ?`, guildID)

	result := ProfanitySettings{GuildID: guildID}
	var rawWords string
	var useDefault int
	if err := row.Scan(&rawWords, &useDefault); err != nil {
		return ProfanitySettings{}, err
	}
	if rawWords == "" {
		rawWords = "[]"
	}
	if err := json.Unmarshal([]byte(rawWords), &result.AddedWords); err != nil {
		return ProfanitySettings{}, fmt.Errorf("decode added words: %w", err)
	}
	result.UseDefault = useDefault == 1
	return result, nil
}

func (s *Store) UpsertProfanitySettings(ctx context.Context, settings ProfanitySettings) error {
	words := settings.AddedWords
	if words == nil {
		words = []string{}
	}
	encoded, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode added words: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profanity_settings (guild_id, added_words, use_default)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			added_words = excluded.added_words,
			use_default = excluded.use_default
	`, settings.GuildID, string(encoded), boolToInt(settings.UseDefault))
	return err
}

func (s *Store) GetOrCreateUserXP(ctx context.Context, guildID, userID string) (UserXP, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_xp (guild_id, user_id) VALUES (?, ?)`, guildID, userID); err != nil {
		return UserXP{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT xp, level FROM user_xp WHERE guild_id = ? AND user_id = ?`, guildID, userID)

	result := UserXP{GuildID: guildID, UserID: userID}
	if err := row.Scan(&result.XP, &result.Level); err != nil {
		return UserXP{}, err
	}
	return result, nil
}

// UpsertUserXP persists XP and level together so the row is never observed
// with a level inconsistent with its XP.
func (s *Store) UpsertUserXP(ctx context.Context, row UserXP) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_xp (guild_id, user_id, xp, level)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			xp = excluded.xp,
			level = excluded.level
	`, row.GuildID, row.UserID, row.XP, row.Level)
	return err
}

func (s *Store) Leaderboard(ctx context.Context, guildID string, limit int) ([]UserXP, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, xp, level FROM user_xp
		WHERE guild_id = ?
		ORDER BY xp DESC
		LIMIT ?`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []UserXP
	for rows.Next() {
		entry := UserXP{GuildID: guildID}
		if err := rows.Scan(&entry.UserID, &entry.XP, &entry.Level); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
