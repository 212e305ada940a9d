package models

// Player is the wallet/stat record for a single game client, keyed by the
// Telegram uid. All currency amounts are int64 centavos so repeated atomic
// increments never drift.
type Player struct {
	UID        string `json:"uid" redis:"uid"`
	Balance    int64  `json:"balance" redis:"balance"`
	Trophies   int64  `json:"trophies" redis:"trophies"`
	XP         int64  `json:"xp" redis:"xp"`
	Wins       int64  `json:"wins" redis:"wins"`
	LastPlayed int64  `json:"last_played" redis:"last_played"`
}

type PlayerResponse struct {
	UID        string `json:"uid"`
	Balance    int64  `json:"balance"`
	Trophies   int64  `json:"trophies"`
	XP         int64  `json:"xp"`
	Wins       int64  `json:"wins"`
	LastPlayed int64  `json:"lastPlayed"`
}
