package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	AccountID uuid.UUID `json:"account_id"`
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"-"`
}

// RankLeaderboard orders entries by balance descending and assigns
// positional ranks. Entries with equal balances keep their input order, so
// callers pass rows in registration order to get a stable tie-break.
func RankLeaderboard(entries []LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance > out[j].Balance
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
