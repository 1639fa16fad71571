package leveling

import (
	"context"
	"math"

	"infinitebot/internal/storage"
)

// levelCurve is the shared constant of the level/XP inverse pair. Both
// directions must use it so "XP needed for next level" agrees with Award.
const levelCurve = 0.1

// Level derives the level for an XP total: floor(0.1 * sqrt(xp)).
func Level(xp int) int {
	if xp <= 0 {
		return 0
	}
	return int(math.Floor(levelCurve * math.Sqrt(float64(xp))))
}

// XPForLevel is the inverse of Level: the minimum XP at which a level is
// reached.
func XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return int(math.Pow(float64(level)/levelCurve, 2))
}

// Ledger accumulates per-(guild,user) XP.
type Ledger struct {
	store *storage.Store
}

func NewLedger(store *storage.Store) *Ledger {
	return &Ledger{store: store}
}

// Awarded reports the outcome of a single XP grant.
type Awarded struct {
	XP       int
	OldLevel int
	NewLevel int
}

// LeveledUp reports whether the grant crossed a level boundary.
func (a Awarded) LeveledUp() bool {
	return a.NewLevel > a.OldLevel
}

// Award grants XP to a user, persisting the new XP and derived level as one
// upsert, and returns both levels so the caller can detect the level-up
// edge without a second read.
func (l *Ledger) Award(ctx context.Context, guildID, userID string, amount int) (Awarded, error) {
	row, err := l.store.GetOrCreateUserXP(ctx, guildID, userID)
	if err != nil {
		return Awarded{}, err
	}

	newXP := row.XP + amount
	result := Awarded{
		XP:       newXP,
		OldLevel: row.Level,
		NewLevel: Level(newXP),
	}

	row.XP = newXP
	row.Level = result.NewLevel
	if err := l.store.UpsertUserXP(ctx, row); err != nil {
		return Awarded{}, err
	}
	return result, nil
}
