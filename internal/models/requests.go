package models

import "fmt"

// Request bodies for the game-client API. Every mutating request carries the
// raw Telegram initData blob; it is verified before any store access.

type StartMatchRequest struct {
	UID       string `json:"uid" binding:"required"`
	BetAmount int64  `json:"betAmount" binding:"required"`
	InitData  string `json:"initData"`
}

type ValidateWinRequest struct {
	UID      string `json:"uid" binding:"required"`
	MatchID  string `json:"matchId" binding:"required"`
	InitData string `json:"initData"`
}

type RefundRequest struct {
	UID      string `json:"uid" binding:"required"`
	Amount   int64  `json:"amount" binding:"required"`
	InitData string `json:"initData"`
}

type AdRewardRequest struct {
	UID      string `json:"uid" binding:"required"`
	InitData string `json:"initData"`
}

type RecordWinRequest struct {
	UID           string `json:"uid" binding:"required"`
	BallsPocketed int    `json:"ballsPocketed"`
	GameMode      string `json:"gameMode"`
	InitData      string `json:"initData"`
}

type DeductBalanceRequest struct {
	UID      string `json:"uid" binding:"required"`
	Amount   int64  `json:"amount" binding:"required"`
	InitData string `json:"initData"`
}

type MatchPayoutRequest struct {
	UID       string `json:"uid" binding:"required"`
	BetAmount int64  `json:"betAmount"`
	InitData  string `json:"initData"`
}

// DeclareResultRequest is only accepted on the internal-token route group.
type DeclareResultRequest struct {
	MatchID   string `json:"matchId" binding:"required"`
	WinnerUID string `json:"winnerUid" binding:"required"`
	LoserUID  string `json:"loserUid"`
}

// WinData is the payload of a successful validate-win response.
type WinData struct {
	Winnings int64 `json:"winnings"`
	Trophies int64 `json:"trophies"`
	XP       int64 `json:"xp"`
}

func (r *StartMatchRequest) Validate() error {
	if r.BetAmount < 1 {
		return fmt.Errorf("bet amount must be positive")
	}
	if r.BetAmount > 1000000 {
		return fmt.Errorf("maximum bet is 1000000 centavos")
	}
	return nil
}

func (r *RefundRequest) Validate() error {
	if r.Amount < 1 {
		return fmt.Errorf("refund amount must be positive")
	}
	return nil
}

func (r *DeductBalanceRequest) Validate() error {
	if r.Amount < 1 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
