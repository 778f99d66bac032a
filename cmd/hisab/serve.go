package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"github.com/hisabapp/hisab/internal/config"
	"github.com/hisabapp/hisab/internal/database"
	"github.com/hisabapp/hisab/internal/events"
	identitycmd "github.com/hisabapp/hisab/internal/identity/command"
	identityhandler "github.com/hisabapp/hisab/internal/identity/handler"
	identityqry "github.com/hisabapp/hisab/internal/identity/query"
	identityrepo "github.com/hisabapp/hisab/internal/identity/repository"
	ledgercmd "github.com/hisabapp/hisab/internal/ledger/command"
	ledgerhandler "github.com/hisabapp/hisab/internal/ledger/handler"
	ledgerqry "github.com/hisabapp/hisab/internal/ledger/query"
	ledgerrepo "github.com/hisabapp/hisab/internal/ledger/repository"
	"github.com/hisabapp/hisab/internal/logger"
	"github.com/hisabapp/hisab/internal/middleware"
	redisClient "github.com/hisabapp/hisab/internal/redis"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	consumer string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API" }
func (*serveCmd) Usage() string {
	return `hisab serve [-consumer <name>]

  Serves the identity and ledger APIs and consumes ledger events to keep
  cached profile views current. Configuration comes from the environment.
`
}

func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	host, _ := os.Hostname()
	f.StringVar(&s.consumer, "consumer", "hisab-"+host, "Redis stream consumer name for this process.")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.MustLoad()
	base := logger.New(cfg.LogLevel, cfg.LogFormat)
	logger.SetGlobal(base)
	middleware.MustInitJWTSecret(cfg.JWTSecret)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return subcommands.ExitFailure
	}
	defer db.Close()

	if cfg.MigrationsOnStart {
		applied, err := database.ApplyMigrations(ctx, db)
		if err != nil {
			log.Error().Err(err).Msg("failed to apply migrations")
			return subcommands.ExitFailure
		}
		log.Info().Strs("applied", applied).Msg("migrations up to date")
	}

	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to Redis")
		return subcommands.ExitFailure
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	userWrite := identityrepo.NewUserWriteRepository(db)
	userRead := identityrepo.NewUserReadRepository(db, redis.Client)
	denylist := identityrepo.NewTokenDenylist(redis.Client)

	userCommands := identitycmd.NewUserCommandService(userWrite, userRead, denylist, publisher)
	authQueries := identityqry.NewAuthQueryService(userWrite, userRead, denylist, cfg.TokenTTL)

	ledgerCommands := ledgercmd.NewAccountCommandService(ledgerrepo.NewPostgresStore(db), publisher)
	ledgerQueries := ledgerqry.NewAccountQueryService(ledgerrepo.NewLedgerReadRepository(db))

	authHandler := identityhandler.NewAuthHandler(userCommands, authQueries)
	userHandler := identityhandler.NewUserHandler(userCommands, authQueries)
	accountHandler := ledgerhandler.NewAccountHandler(ledgerCommands, ledgerQueries, cfg.Currency)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(base))

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := redis.Healthy(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(denylist)
	v1 := router.Group("/v1")
	authHandler.RegisterRoutes(v1, auth)
	userHandler.RegisterRoutes(v1, auth)
	accountHandler.RegisterRoutes(v1.Group("", auth, middleware.ProfileGate(authQueries)))

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "identity-group",
			Consumer: s.consumer,
			Stream:   events.LedgerEventsStream,
			Handler:  userCommands.HandleLedgerEvent,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("ledger event subscriber stopped")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("hisab starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
