package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/models"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/services"
)

// GameHandler exposes the match-wager protocol: start-match, validate-win,
// declare-result and refund. Authentication is checked before any store access.
type GameHandler struct {
	engine *services.WagerEngine
	auth   *services.TelegramAuth
}

func NewGameHandler(engine *services.WagerEngine, auth *services.TelegramAuth) *GameHandler {
	return &GameHandler{
		engine: engine,
		auth:   auth,
	}
}

func (h *GameHandler) StartMatch(c *gin.Context) {
	var req models.StartMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
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

	matchID, err := h.engine.StartMatch(c.Request.Context(), req.UID, req.BetAmount)
	if err != nil {
		respondEngineError(c, err, "Failed to start match")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"matchId": matchID,
	})
}

func (h *GameHandler) ValidateWin(c *gin.Context) {
	var req models.ValidateWinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if !h.auth.Verify(req.InitData) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.engine.ValidateWin(c.Request.Context(), req.UID, req.MatchID)
	if err != nil {
		respondEngineError(c, err, "Failed to validate win")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": models.WinData{
			Winnings: result.Winnings,
			Trophies: result.Trophies,
			XP:       result.XP,
		},
	})
}

// DeclareResult is reachable only through the internal-token route group; it
// records the authoritative winner that ValidateWin later pays.
func (h *GameHandler) DeclareResult(c *gin.Context) {
	var req models.DeclareResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.engine.DeclareResult(c.Request.Context(), req.MatchID, req.WinnerUID, req.LoserUID); err != nil {
		respondEngineError(c, err, "Failed to declare result")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refund requires both the internal service token (route group) and a valid
// initData blob, since the refunded uid comes from the request body.
func (h *GameHandler) Refund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
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

	if err := h.engine.Refund(c.Request.Context(), req.UID, req.Amount); err != nil {
		log.Error().Err(err).Str("uid", req.UID).Msg("Refund failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refund failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondEngineError maps engine errors to status codes: validation rejections
// are 400s with a readable message, everything else is an opaque 500.
func respondEngineError(c *gin.Context, err error, internalMsg string) {
	if services.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if errors.Is(err, services.ErrTxConflict) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store is busy, try again"})
		return
	}
	log.Error().Err(err).Msg(internalMsg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": internalMsg})
}
