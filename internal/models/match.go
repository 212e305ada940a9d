package models

type MatchStatus string

const (
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusExpired   MatchStatus = "expired"
)

// Match is a wagered match record. It is created by StartMatch with the bet
// already debited from the owning player, and leaves the active status exactly
// once: completed by a validated win claim, or expired by the reconciliation
// sweep (which refunds the bet).
type Match struct {
	ID     string      `json:"id" redis:"id"`
	UID    string      `json:"uid" redis:"uid"`
	Bet    int64       `json:"bet" redis:"bet"`
	Status MatchStatus `json:"status" redis:"status"`

	// Winner is set only by the trusted declare-result path, never inferred
	// from the claiming caller.
	Winner string `json:"winner,omitempty" redis:"winner"`

	StartTime int64 `json:"start_time" redis:"start_time"`
	EndedAt   int64 `json:"ended_at,omitempty" redis:"ended_at"`
	Payout    int64 `json:"payout,omitempty" redis:"payout"`
}

// IsActive reports whether the match can still be settled or expired.
func (m *Match) IsActive() bool {
	return m.Status == MatchStatusActive
}
