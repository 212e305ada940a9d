package services

const (
	KeyPlayer        = "player:%s"
	KeyMatch         = "match:%s"
	KeyActiveMatches = "matches:active"

	FieldBalance    = "balance"
	FieldTrophies   = "trophies"
	FieldXP         = "xp"
	FieldWins       = "wins"
	FieldLastPlayed = "last_played"

	// maxTxRetries bounds the transparent retry loop around optimistic
	// WATCH transactions before the conflict is surfaced as ErrTxConflict.
	maxTxRetries = 10
)
