package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/models"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/services"
)

func setupTestEngine(t *testing.T) (*services.WagerEngine, *services.RedisService) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := services.NewRedisServiceWithClient(client)
	t.Cleanup(func() { store.Close() })

	return services.NewWagerEngine(store), store
}

func seedPlayer(t *testing.T, store *services.RedisService, uid string, balance int64) {
	t.Helper()
	_, err := store.CreditBalance(context.Background(), uid, balance)
	require.NoError(t, err)
}

func TestStartMatchDebitsAndCreatesMatch(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)

	matchID, err := engine.StartMatch(ctx, "alice", 40)
	require.NoError(t, err)
	require.NotEmpty(t, matchID)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(60), player.Balance)

	match, err := store.GetMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, "alice", match.UID)
	assert.Equal(t, int64(40), match.Bet)
	assert.Equal(t, models.MatchStatusActive, match.Status)
	assert.NotZero(t, match.StartTime)

	ids, err := store.ActiveMatchIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{matchID}, ids)
}

func TestStartMatchInsufficientFunds(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 30)

	_, err := engine.StartMatch(ctx, "alice", 40)
	assert.ErrorIs(t, err, services.ErrInsufficientFunds)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(30), player.Balance, "failed start must not debit")

	ids, err := store.ActiveMatchIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "failed start must not create a match")
}

func TestStartMatchUnknownPlayer(t *testing.T) {
	engine, _ := setupTestEngine(t)

	_, err := engine.StartMatch(context.Background(), "ghost", 40)
	assert.ErrorIs(t, err, services.ErrPlayerNotFound)
}

func TestStartMatchRejectsNonPositiveBet(t *testing.T) {
	engine, store := setupTestEngine(t)
	seedPlayer(t, store, "alice", 100)

	_, err := engine.StartMatch(context.Background(), "alice", 0)
	assert.Error(t, err)

	_, err = engine.StartMatch(context.Background(), "alice", -5)
	assert.Error(t, err)
}

func TestValidateWinPaysDeclaredWinnerOnce(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)
	seedPlayer(t, store, "bob", 100)

	matchID, err := engine.StartMatch(ctx, "alice", 40)
	require.NoError(t, err)

	require.NoError(t, engine.DeclareResult(ctx, matchID, "alice", "bob"))

	result, err := engine.ValidateWin(ctx, "alice", matchID)
	require.NoError(t, err)
	assert.Equal(t, int64(72), result.Winnings, "payout is bet*1.8")
	assert.Equal(t, int64(25), result.Trophies)
	assert.Equal(t, int64(50), result.XP)
	assert.Equal(t, int64(132), result.NewBalance)

	alice, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(132), alice.Balance)
	assert.Equal(t, int64(25), alice.Trophies)
	assert.Equal(t, int64(50), alice.XP)
	assert.Equal(t, int64(1), alice.Wins)

	match, err := store.GetMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	assert.Equal(t, int64(72), match.Payout)

	// Replaying the claim must be rejected without further mutation.
	_, err = engine.ValidateWin(ctx, "alice", matchID)
	assert.ErrorIs(t, err, services.ErrMatchNotActive)

	alice, err = store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(132), alice.Balance)
	assert.Equal(t, int64(1), alice.Wins)

	// The loser's stat delta was applied at declaration time.
	bob, err := store.GetPlayer(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bob.Balance)
	assert.Equal(t, int64(-20), bob.Trophies)
	assert.Equal(t, int64(15), bob.XP)
	assert.Equal(t, int64(0), bob.Wins)
}

func TestValidateWinRequiresDeclaredResult(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)
	matchID, err := engine.StartMatch(ctx, "alice", 40)
	require.NoError(t, err)

	_, err = engine.ValidateWin(ctx, "alice", matchID)
	assert.ErrorIs(t, err, services.ErrResultPending)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(60), player.Balance, "rejected claim must not pay")
}

func TestValidateWinRejectsWrongClaimant(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)
	seedPlayer(t, store, "mallory", 100)

	matchID, err := engine.StartMatch(ctx, "alice", 40)
	require.NoError(t, err)
	require.NoError(t, engine.DeclareResult(ctx, matchID, "alice", ""))

	_, err = engine.ValidateWin(ctx, "mallory", matchID)
	assert.ErrorIs(t, err, services.ErrNotWinner)

	mallory, err := store.GetPlayer(ctx, "mallory")
	require.NoError(t, err)
	assert.Equal(t, int64(100), mallory.Balance)
	assert.Equal(t, int64(0), mallory.Wins)
}

func TestValidateWinUnknownMatch(t *testing.T) {
	engine, _ := setupTestEngine(t)

	_, err := engine.ValidateWin(context.Background(), "alice", "match_nope")
	assert.ErrorIs(t, err, services.ErrMatchNotFound)
}

func TestDeclareResultOnlyOnce(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)
	seedPlayer(t, store, "bob", 100)

	matchID, err := engine.StartMatch(ctx, "alice", 40)
	require.NoError(t, err)

	require.NoError(t, engine.DeclareResult(ctx, matchID, "alice", "bob"))
	err = engine.DeclareResult(ctx, matchID, "bob", "alice")
	assert.ErrorIs(t, err, services.ErrResultDeclared)

	// The losing delta from the rejected re-declaration must not apply.
	alice, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.Trophies)
}

func TestRefundCreditsExactAmount(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 10)

	require.NoError(t, engine.Refund(ctx, "alice", 35))

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(45), player.Balance)
	assert.Equal(t, int64(0), player.Trophies)
	assert.Equal(t, int64(0), player.XP)
	assert.Equal(t, int64(0), player.Wins)
}

func TestAdRewardIsFixedAndUpserts(t *testing.T) {
	engine, _ := setupTestEngine(t)

	// First crediting write creates the player record implicitly.
	newBalance, err := engine.AdReward(context.Background(), "fresh-player")
	require.NoError(t, err)
	assert.Equal(t, int64(services.FixedAdReward), newBalance)

	newBalance, err = engine.AdReward(context.Background(), "fresh-player")
	require.NoError(t, err)
	assert.Equal(t, int64(2*services.FixedAdReward), newBalance)
}

func TestRecordWinRewardRates(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	reward, xp, err := engine.RecordWin(ctx, "alice", 3, "ranked_1v1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), reward)
	assert.Equal(t, int64(30), xp)

	reward, xp, err = engine.RecordWin(ctx, "alice", 3, "practice")
	require.NoError(t, err)
	assert.Equal(t, int64(6), reward)
	assert.Equal(t, int64(6), xp)

	reward, xp, err = engine.RecordWin(ctx, "alice", 2, "vs_ai_easy")
	require.NoError(t, err)
	assert.Equal(t, int64(4), reward)
	assert.Equal(t, int64(4), xp)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), player.Balance)
	assert.Equal(t, int64(40), player.XP)
}

func TestDeductBalance(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)

	newBalance, err := engine.DeductBalance(ctx, "alice", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), newBalance)

	_, err = engine.DeductBalance(ctx, "alice", 500)
	assert.ErrorIs(t, err, services.ErrInsufficientFunds)

	_, err = engine.DeductBalance(ctx, "ghost", 10)
	assert.ErrorIs(t, err, services.ErrPlayerNotFound)
}

func TestMatchPayoutLegacyCredit(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 60)

	newBalance, err := engine.MatchPayout(ctx, "alice", 40)
	require.NoError(t, err)
	assert.Equal(t, int64(132), newBalance)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(132), player.Balance)
}

// Two simultaneous starts against a balance that covers only one bet: exactly
// one may commit. The optimistic transaction forces the loser to re-read and
// fail the funds check.
func TestConcurrentStartMatchSingleWinner(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 50)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.StartMatch(ctx, "alice", 50)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, services.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent start may commit")

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), player.Balance, "balance must never go negative")

	ids, err := store.ActiveMatchIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestExpireStaleMatchesRefundsBet(t *testing.T) {
	engine, store := setupTestEngine(t)
	ctx := context.Background()

	seedPlayer(t, store, "alice", 100)

	stale := &models.Match{
		ID:        models.GenerateMatchID(),
		UID:       "alice",
		Bet:       40,
		Status:    models.MatchStatusActive,
		StartTime: time.Now().Add(-2 * time.Hour).Unix(),
	}
	require.NoError(t, store.DebitAndCreateMatch(ctx, "alice", 40, stale))

	freshID, err := engine.StartMatch(ctx, "alice", 20)
	require.NoError(t, err)

	expired, err := engine.ExpireStaleMatches(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	player, err := store.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(80), player.Balance, "stale bet refunded, fresh bet still held")

	match, err := store.GetMatch(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusExpired, match.Status)

	fresh, err := store.GetMatch(ctx, freshID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusActive, fresh.Status)

	// An expired match can never be claimed.
	require.NoError(t, engine.DeclareResult(ctx, freshID, "alice", ""))
	_, err = engine.ValidateWin(ctx, "alice", stale.ID)
	assert.ErrorIs(t, err, services.ErrMatchNotActive)
}
