package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/models"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/services"
)

// PlayerHandler covers the wallet/stat endpoints outside the wager protocol:
// ad rewards, per-ball gameplay rewards, plain deductions and the legacy pot
// payout, plus the read-only player lookup.
type PlayerHandler struct {
	engine *services.WagerEngine
	auth   *services.TelegramAuth
}

func NewPlayerHandler(engine *services.WagerEngine, auth *services.TelegramAuth) *PlayerHandler {
	return &PlayerHandler{
		engine: engine,
		auth:   auth,
	}
}

// AdReward credits the fixed server-chosen ad reward. The amount is never read
// from the request.
func (h *PlayerHandler) AdReward(c *gin.Context) {
	var req models.AdRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if !h.auth.Verify(req.InitData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	newBalance, err := h.engine.AdReward(c.Request.Context(), req.UID)
	if err != nil {
		log.Error().Err(err).Str("uid", req.UID).Msg("Ad reward failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newBalance": newBalance,
	})
}

func (h *PlayerHandler) RecordWin(c *gin.Context) {
	var req models.RecordWinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if !h.auth.Verify(req.InitData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reward, xp, err := h.engine.RecordWin(c.Request.Context(), req.UID, req.BallsPocketed, req.GameMode)
	if err != nil {
		log.Error().Err(err).Str("uid", req.UID).Msg("Record win failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reward":  reward,
		"xp":      xp,
	})
}

func (h *PlayerHandler) DeductBalance(c *gin.Context) {
	var req models.DeductBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	if !h.auth.Verify(req.InitData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.engine.DeductBalance(c.Request.Context(), req.UID, req.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Not enough balance"})
			return
		}
		if services.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Transaction Failed"})
			return
		}
		log.Error().Err(err).Str("uid", req.UID).Msg("Deduct balance failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction Failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newBalance": newBalance,
	})
}

// MatchPayout is the legacy pot credit for clients that settle outside the
// wager protocol.
func (h *PlayerHandler) MatchPayout(c *gin.Context) {
	var req models.MatchPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if !h.auth.Verify(req.InitData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	newBalance, err := h.engine.MatchPayout(c.Request.Context(), req.UID, req.BetAmount)
	if err != nil {
		log.Error().Err(err).Str("uid", req.UID).Msg("Match payout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"newBalance": newBalance,
	})
}

func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	uid := c.Param("uid")

	player, err := h.engine.GetPlayer(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrPlayerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		log.Error().Err(err).Str("uid", uid).Msg("Get player failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"player": models.PlayerResponse{
			UID:        player.UID,
			Balance:    player.Balance,
			Trophies:   player.Trophies,
			XP:         player.XP,
			Wins:       player.Wins,
			LastPlayed: player.LastPlayed,
		},
	})
}
