package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/config"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/models"
)

// RedisService is the ledger store. Player records are hashes mutated only
// through atomic increments; match records are JSON documents. Every operation
// that acts on a prior read runs inside an optimistic WATCH transaction.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	log.Info().Str("addr", cfg.RedisURL).Int("db", cfg.RedisDB).Msg("Connected to Redis")

	return &RedisService{client: client}, nil
}

// NewRedisServiceWithClient wraps an existing client. Used by tests.
func NewRedisServiceWithClient(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func playerKey(uid string) string {
	return fmt.Sprintf(KeyPlayer, uid)
}

func matchKey(id string) string {
	return fmt.Sprintf(KeyMatch, id)
}

// runTx executes fn under WATCH on the given keys, retrying transparently when
// a concurrent writer invalidates the read set. Retries are invisible to the
// caller until the budget is exhausted.
func (s *RedisService) runTx(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	log.Warn().Strs("keys", keys).Msg("Optimistic transaction retries exhausted")
	return ErrTxConflict
}

func getMatch(ctx context.Context, c redis.Cmdable, id string) (*models.Match, error) {
	data, err := c.Get(ctx, matchKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %v", id, err)
	}

	var match models.Match
	if err := json.Unmarshal([]byte(data), &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match %s: %v", id, err)
	}
	return &match, nil
}

// DebitAndCreateMatch atomically deducts the bet from the player and writes the
// match record. Either both happen or neither does: a stale balance read aborts
// the MULTI block and the whole operation is retried.
func (s *RedisService) DebitAndCreateMatch(ctx context.Context, uid string, bet int64, match *models.Match) error {
	pKey := playerKey(uid)
	mKey := matchKey(match.ID)

	return s.runTx(ctx, func(tx *redis.Tx) error {
		balance, err := tx.HGet(ctx, pKey, FieldBalance).Int64()
		if errors.Is(err, redis.Nil) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read balance: %v", err)
		}
		if balance < bet {
			return ErrInsufficientFunds
		}

		data, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %v", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, pKey, FieldBalance, -bet)
			pipe.HSet(ctx, pKey, FieldLastPlayed, match.StartTime)
			pipe.Set(ctx, mKey, data, 0)
			pipe.SAdd(ctx, KeyActiveMatches, match.ID)
			return nil
		})
		return err
	}, pKey, mKey)
}

// SettleWin atomically pays out an active match to its recorded winner and
// marks it completed. A second claim on the same match finds it completed and
// is rejected; that status check is the sole replay defense.
func (s *RedisService) SettleWin(ctx context.Context, uid, matchID string, multNum, multDen, trophies, xp int64) (*models.Match, int64, error) {
	pKey := playerKey(uid)
	mKey := matchKey(matchID)

	var settled models.Match
	var newBalance int64

	err := s.runTx(ctx, func(tx *redis.Tx) error {
		match, err := getMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !match.IsActive() {
			return ErrMatchNotActive
		}
		if match.Winner == "" {
			return ErrResultPending
		}
		if match.Winner != uid {
			return ErrNotWinner
		}

		balance, err := tx.HGet(ctx, pKey, FieldBalance).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read balance: %v", err)
		}

		now := time.Now().Unix()
		match.Status = models.MatchStatusCompleted
		match.Payout = match.Bet * multNum / multDen
		match.EndedAt = now

		data, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %v", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, pKey, FieldBalance, match.Payout)
			pipe.HIncrBy(ctx, pKey, FieldTrophies, trophies)
			pipe.HIncrBy(ctx, pKey, FieldXP, xp)
			pipe.HIncrBy(ctx, pKey, FieldWins, 1)
			pipe.HSet(ctx, pKey, FieldLastPlayed, now)
			pipe.Set(ctx, mKey, data, 0)
			pipe.SRem(ctx, KeyActiveMatches, matchID)
			return nil
		})
		if err != nil {
			return err
		}

		settled = *match
		newBalance = balance + match.Payout
		return nil
	}, pKey, mKey)
	if err != nil {
		return nil, 0, err
	}

	return &settled, newBalance, nil
}

// DeclareResult records the winner on an active match. Only the server-trusted
// referee path reaches this; a result can be declared at most once. The loser's
// stat delta rides in the same transaction when a loser uid is supplied.
func (s *RedisService) DeclareResult(ctx context.Context, matchID, winnerUID, loserUID string, loserTrophies, loserXP int64) error {
	mKey := matchKey(matchID)
	keys := []string{mKey}
	if loserUID != "" {
		keys = append(keys, playerKey(loserUID))
	}

	return s.runTx(ctx, func(tx *redis.Tx) error {
		match, err := getMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !match.IsActive() {
			return ErrMatchNotActive
		}
		if match.Winner != "" {
			return ErrResultDeclared
		}

		match.Winner = winnerUID
		data, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %v", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, mKey, data, 0)
			if loserUID != "" {
				lKey := playerKey(loserUID)
				pipe.HIncrBy(ctx, lKey, FieldTrophies, loserTrophies)
				pipe.HIncrBy(ctx, lKey, FieldXP, loserXP)
				pipe.HSet(ctx, lKey, FieldLastPlayed, time.Now().Unix())
			}
			return nil
		})
		return err
	}, keys...)
}

// ExpireMatch refunds and closes an active match whose start time is before
// the cutoff. Returns false when the match was already settled or is not yet
// stale. The status transition under WATCH guarantees at most one refund.
func (s *RedisService) ExpireMatch(ctx context.Context, matchID string, cutoff time.Time) (bool, error) {
	mKey := matchKey(matchID)
	expired := false

	err := s.runTx(ctx, func(tx *redis.Tx) error {
		expired = false
		match, err := getMatch(ctx, tx, matchID)
		if errors.Is(err, ErrMatchNotFound) {
			// Dangling index entry; drop it.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SRem(ctx, KeyActiveMatches, matchID)
				return nil
			})
			return err
		}
		if err != nil {
			return err
		}
		if !match.IsActive() || match.StartTime >= cutoff.Unix() {
			return nil
		}

		match.Status = models.MatchStatusExpired
		match.EndedAt = time.Now().Unix()
		data, err := json.Marshal(match)
		if err != nil {
			return fmt.Errorf("failed to marshal match: %v", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, playerKey(match.UID), FieldBalance, match.Bet)
			pipe.Set(ctx, mKey, data, 0)
			pipe.SRem(ctx, KeyActiveMatches, matchID)
			return nil
		})
		if err != nil {
			return err
		}
		expired = true
		return nil
	}, mKey)

	return expired, err
}

// CreditBalance adds amount to the player's balance with upsert semantics and
// returns the new balance. No prior read, so no transaction is needed.
func (s *RedisService) CreditBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	pKey := playerKey(uid)

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, pKey, FieldBalance, amount)
	pipe.HSet(ctx, pKey, FieldLastPlayed, time.Now().Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to credit balance: %v", err)
	}

	return incr.Val(), nil
}

// CreditRewards adds gameplay rewards (coins and xp) in one atomic batch.
func (s *RedisService) CreditRewards(ctx context.Context, uid string, coins, xp int64) (int64, error) {
	pKey := playerKey(uid)

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, pKey, FieldBalance, coins)
	pipe.HIncrBy(ctx, pKey, FieldXP, xp)
	pipe.HSet(ctx, pKey, FieldLastPlayed, time.Now().Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to credit rewards: %v", err)
	}

	return incr.Val(), nil
}

// DeductBalance atomically subtracts amount after checking funds, inside a
// WATCH transaction so concurrent deductions cannot both pass the check.
func (s *RedisService) DeductBalance(ctx context.Context, uid string, amount int64) (int64, error) {
	pKey := playerKey(uid)
	var newBalance int64

	err := s.runTx(ctx, func(tx *redis.Tx) error {
		balance, err := tx.HGet(ctx, pKey, FieldBalance).Int64()
		if errors.Is(err, redis.Nil) {
			return ErrPlayerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read balance: %v", err)
		}
		if balance < amount {
			return ErrInsufficientFunds
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HIncrBy(ctx, pKey, FieldBalance, -amount)
			return nil
		})
		if err != nil {
			return err
		}
		newBalance = balance - amount
		return nil
	}, pKey)
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (s *RedisService) GetPlayer(ctx context.Context, uid string) (*models.Player, error) {
	fields, err := s.client.HGetAll(ctx, playerKey(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %v", uid, err)
	}
	if len(fields) == 0 {
		return nil, ErrPlayerNotFound
	}

	player := &models.Player{UID: uid}
	player.Balance = parseInt(fields[FieldBalance])
	player.Trophies = parseInt(fields[FieldTrophies])
	player.XP = parseInt(fields[FieldXP])
	player.Wins = parseInt(fields[FieldWins])
	player.LastPlayed = parseInt(fields[FieldLastPlayed])
	return player, nil
}

func (s *RedisService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	return getMatch(ctx, s.client, id)
}

// ActiveMatchIDs returns the ids indexed as active, for the expiry sweep.
func (s *RedisService) ActiveMatchIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, KeyActiveMatches).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches: %v", err)
	}
	return ids, nil
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
