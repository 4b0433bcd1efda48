package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/examgate/examgate/config"
	_ "github.com/examgate/examgate/docs" // Swagger docs
	"github.com/examgate/examgate/internal/controller"
	"github.com/examgate/examgate/internal/logger"
	"github.com/examgate/examgate/internal/repository"
	"github.com/examgate/examgate/internal/service"
	"github.com/examgate/examgate/internal/transport"
)

// @title Examgate Attempt Gateway API
// @version 1.0
// @description Assessment attempt lifecycle gateway: guarded attempt sessions with per-question timers, optimistic answer recording and locally aggregated analytics over an upstream assessment backend.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			NewBackendClient,
			NewJournalDB,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewQuestionRepository,
			repository.NewAttemptRepository,
			repository.NewCompletionRepository,
			repository.NewAnalyticsRepository,
			repository.NewJournalRepository,
		),

		fx.Provide(
			service.NewCompletionGuard,
			service.NewQuestionBankService,
			service.NewAttemptSessionService,
			service.NewAnalyticsService,
		),

		fx.Provide(controller.NewController),

		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewBackendClient(cfg *config.Config) transport.Client {
	tokens := transport.NewStaticTokenProvider(cfg.Backend.Token)
	timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	return transport.NewClient(cfg.Backend.BaseURL, tokens, timeout)
}

func NewJournalDB(cfg *config.Config) (*gorm.DB, error) {
	return repository.OpenJournal(cfg.Journal.Path)
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	ctrl *controller.Controller,
) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Attempt gateway starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
