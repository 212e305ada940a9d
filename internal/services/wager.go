package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/models"
)

// Payout and reward constants. The winner takes 1.8x of their own stake, which
// funds a 10% house cut per player across the two equal stakes.
const (
	PayoutMultiplierNum = 9
	PayoutMultiplierDen = 5

	WinTrophies  = 25
	WinXP        = 50
	LossTrophies = -20
	LossXP       = 15

	FixedAdReward = 50

	RewardPerBall         = 10
	XPPerBall             = 10
	PracticeRewardPerBall = 2
	PracticeXPPerBall     = 2
)

// WagerEngine implements the match-wager protocol: StartMatch debits the bet
// and opens a match, DeclareResult records the authoritative winner, and
// ValidateWin pays the declared winner exactly once. Every balance-affecting
// step that depends on a prior read runs as a single store transaction.
type WagerEngine struct {
	store *RedisService
}

// WinResult reports a settled win claim.
type WinResult struct {
	MatchID    string
	Winnings   int64
	Trophies   int64
	XP         int64
	NewBalance int64
}

func NewWagerEngine(store *RedisService) *WagerEngine {
	return &WagerEngine{store: store}
}

// StartMatch atomically checks funds, debits the bet, and creates an active
// match owned by uid. No partial debit is possible: an insufficient balance or
// a missing player aborts before any write.
func (e *WagerEngine) StartMatch(ctx context.Context, uid string, bet int64) (string, error) {
	if bet <= 0 {
		return "", fmt.Errorf("bet must be positive, got %d", bet)
	}

	match := &models.Match{
		ID:        models.GenerateMatchID(),
		UID:       uid,
		Bet:       bet,
		Status:    models.MatchStatusActive,
		StartTime: time.Now().Unix(),
	}

	if err := e.store.DebitAndCreateMatch(ctx, uid, bet, match); err != nil {
		return "", err
	}

	log.Info().
		Str("uid", uid).
		Str("match_id", match.ID).
		Int64("bet", bet).
		Msg("Match started")

	return match.ID, nil
}

// DeclareResult records which player actually won, written only by the trusted
// referee path. ValidateWin reads this record instead of trusting the caller's
// claim. The loser's stat update (fewer trophies, consolation xp) is applied
// here, in the same transaction as the declaration.
func (e *WagerEngine) DeclareResult(ctx context.Context, matchID, winnerUID, loserUID string) error {
	if winnerUID == "" {
		return fmt.Errorf("winner uid is required")
	}

	err := e.store.DeclareResult(ctx, matchID, winnerUID, loserUID, LossTrophies, LossXP)
	if err != nil {
		return err
	}

	log.Info().
		Str("match_id", matchID).
		Str("winner", winnerUID).
		Msg("Match result declared")

	return nil
}

// ValidateWin settles an active match for its recorded winner: balance is
// credited with bet*1.8, trophies +25, xp +50, wins +1, and the match is
// marked completed with its payout. A replayed claim finds the match already
// completed and is rejected with ErrMatchNotActive.
func (e *WagerEngine) ValidateWin(ctx context.Context, uid, matchID string) (*WinResult, error) {
	match, newBalance, err := e.store.SettleWin(ctx, uid, matchID,
		PayoutMultiplierNum, PayoutMultiplierDen, WinTrophies, WinXP)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("uid", uid).
		Str("match_id", matchID).
		Int64("payout", match.Payout).
		Msg("Win validated")

	return &WinResult{
		MatchID:    matchID,
		Winnings:   match.Payout,
		Trophies:   WinTrophies,
		XP:         WinXP,
		NewBalance: newBalance,
	}, nil
}

// Refund unconditionally credits amount back to the player. There is no match
// check and no upper bound: this is a trusted failure-path operation, reachable
// only through the internal-token route group.
func (e *WagerEngine) Refund(ctx context.Context, uid string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}

	if _, err := e.store.CreditBalance(ctx, uid, amount); err != nil {
		return err
	}

	log.Info().Str("uid", uid).Int64("amount", amount).Msg("Refund applied")
	return nil
}

// AdReward credits the fixed server-chosen ad reward. The amount is never
// client-supplied.
func (e *WagerEngine) AdReward(ctx context.Context, uid string) (int64, error) {
	return e.store.CreditBalance(ctx, uid, FixedAdReward)
}

// RecordWin credits per-ball gameplay rewards as balls are pocketed. Practice
// and AI modes pay a reduced rate.
func (e *WagerEngine) RecordWin(ctx context.Context, uid string, ballsPocketed int, gameMode string) (int64, int64, error) {
	if ballsPocketed < 0 {
		ballsPocketed = 0
	}

	rewardPerBall := int64(RewardPerBall)
	xpPerBall := int64(XPPerBall)
	mode := strings.ToLower(gameMode)
	if strings.Contains(mode, "ai") || strings.Contains(mode, "practice") {
		rewardPerBall = PracticeRewardPerBall
		xpPerBall = PracticeXPPerBall
	}

	reward := int64(ballsPocketed) * rewardPerBall
	xp := int64(ballsPocketed) * xpPerBall

	if _, err := e.store.CreditRewards(ctx, uid, reward, xp); err != nil {
		return 0, 0, err
	}
	return reward, xp, nil
}

// DeductBalance debits amount after a funds check, inside a store transaction.
func (e *WagerEngine) DeductBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", amount)
	}
	return e.store.DeductBalance(ctx, uid, amount)
}

// MatchPayout credits the legacy pot payout of bet*1.8 without a match record.
// Kept for older clients that settle outside the wager protocol.
func (e *WagerEngine) MatchPayout(ctx context.Context, uid string, betAmount int64) (int64, error) {
	if betAmount < 0 {
		betAmount = 0
	}
	winnings := betAmount * PayoutMultiplierNum / PayoutMultiplierDen
	return e.store.CreditBalance(ctx, uid, winnings)
}

// ExpireStaleMatches refunds and closes active matches older than maxAge.
// Without it, an abandoned match would leave the wagered funds debited forever.
func (e *WagerEngine) ExpireStaleMatches(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := e.store.ActiveMatchIDs(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	expired := 0
	for _, id := range ids {
		ok, err := e.store.ExpireMatch(ctx, id, cutoff)
		if err != nil {
			log.Error().Err(err).Str("match_id", id).Msg("Failed to expire match")
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("Expired stale matches")
	}
	return expired, nil
}

// GetPlayer exposes the stored player record for the read-only stats route.
func (e *WagerEngine) GetPlayer(ctx context.Context, uid string) (*models.Player, error) {
	return e.store.GetPlayer(ctx, uid)
}
