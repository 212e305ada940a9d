package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/config"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/handlers"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/middleware"
	"github.com/arnoldtasipit66-wq/Pinoy-pool/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.BotToken == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, all client requests will be rejected")
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisService.Close()

	telegramAuth := services.NewTelegramAuth(cfg.BotToken)
	jwtService := services.NewJWTService(cfg.InternalAPISecret)
	engine := services.NewWagerEngine(redisService)

	// Reconciliation sweep: abandoned active matches are refunded so wagered
	// funds can never stay debited forever.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := engine.ExpireStaleMatches(ctx, cfg.MatchMaxAge); err != nil {
				log.Error().Err(err).Msg("Stale match sweep failed")
			}
			cancel()
		}
	}()

	gameHandler := handlers.NewGameHandler(engine, telegramAuth)
	playerHandler := handlers.NewPlayerHandler(engine, telegramAuth)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Pinoy Pool Server is LIVE! 🎱 - Secured Version")
	})

	api := router.Group("/api")
	{
		api.POST("/start-match", gameHandler.StartMatch)
		api.POST("/validate-win", gameHandler.ValidateWin)
		api.POST("/ad-reward", playerHandler.AdReward)
		api.POST("/record-win", playerHandler.RecordWin)
		api.POST("/deduct-balance", playerHandler.DeductBalance)
		api.POST("/match-payout", playerHandler.MatchPayout)
		api.GET("/player/:uid", playerHandler.GetPlayer)

		internal := api.Group("")
		internal.Use(middleware.InternalAuth(jwtService))
		{
			internal.POST("/refund", gameHandler.Refund)
			internal.POST("/declare-result", gameHandler.DeclareResult)
		}
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
