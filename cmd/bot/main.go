package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	bbolt "go.etcd.io/bbolt"

	_ "giveaway-tracker-bot/docs"
	"giveaway-tracker-bot/internal/common/cache"
	"giveaway-tracker-bot/internal/common/config"
	"giveaway-tracker-bot/internal/common/lock"
	"giveaway-tracker-bot/internal/common/logger"
	"giveaway-tracker-bot/internal/common/middleware"
	giveawaydiscord "giveaway-tracker-bot/internal/features/giveaway/delivery/discord"
	giveawayhttp "giveaway-tracker-bot/internal/features/giveaway/delivery/http"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
	boltrepo "giveaway-tracker-bot/internal/features/giveaway/repository/bolt"
	pgrepo "giveaway-tracker-bot/internal/features/giveaway/repository/postgres"
	giveawayservice "giveaway-tracker-bot/internal/features/giveaway/service"
	statsdiscord "giveaway-tracker-bot/internal/features/stats/delivery/discord"
	statshttp "giveaway-tracker-bot/internal/features/stats/delivery/http"
	statsservice "giveaway-tracker-bot/internal/features/stats/service"
	vouchdiscord "giveaway-tracker-bot/internal/features/vouch/delivery/discord"
	vouchservice "giveaway-tracker-bot/internal/features/vouch/service"
	boltstore "giveaway-tracker-bot/internal/platform/bolt"
	"giveaway-tracker-bot/internal/platform/discord"
	"giveaway-tracker-bot/internal/platform/postgres"
	"giveaway-tracker-bot/internal/platform/redis"
)

// @title           Giveaway Tracker API
// @version         1.0
// @description     Read-only API over the Discord giveaway bot: leaderboards, giveaways, wins and vouches per guild.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Bearer " followed by HTTP_API_TOKEN

// @tag.name stats
// @tag.description Leaderboards, giveaway listings and per-user wins and vouches

// @tag.name giveaways
// @tag.description Single giveaway lookup and deadline scanner counters

// @tag.name health
// @tag.description Liveness and readiness checks

const serviceName = "giveaway-tracker-bot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, true)
		logger.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(serviceName, cfg.Debug)

	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("Bot stopped with error")
	}
	logger.Info().Msg("Bot exited")
}

type store struct {
	repo  repository.Repository
	check statshttp.ReadinessCheck
	close func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		client, err := postgres.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo := pgrepo.New(client.DB())
		if cfg.Postgres.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Msg("Database schema is up to date")
		}
		return &store{
			repo:  repo,
			check: statshttp.ReadinessCheck{Name: "postgres", Check: client.HealthCheck},
			close: func() { _ = client.Close() },
		}, nil
	default:
		db, err := boltstore.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, err
		}
		repo, err := boltrepo.New(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			repo:  repo,
			check: statshttp.ReadinessCheck{Name: "bolt", Check: repo.Ping},
			close: func() { closeBolt(db) },
		}, nil
	}
}

func closeBolt(db *bbolt.DB) {
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close bolt store")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	checks := []statshttp.ReadinessCheck{st.check}

	var (
		locker lock.Locker = lock.NewLocalLocker()
		stats  cache.Cache = cache.Noop{}
	)
	if cfg.Redis.Enabled {
		rc, err := redis.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer rc.Close()
		locker = lock.NewRedisLocker(rc.Client, cfg.Redis.LockTTL)
		stats = cache.NewCacheService(rc.Client, cfg.Redis.CacheTTL)
		checks = append(checks, statshttp.ReadinessCheck{Name: "redis", Check: rc.HealthCheck})
	}

	session, err := discord.NewSession(cfg)
	if err != nil {
		return err
	}

	giveawaySvc := giveawayservice.NewGiveawayService(st.repo, locker, stats, cfg, logger.Component("giveaways"),
		giveawayservice.WithAnnouncer(giveawaydiscord.NewAnnouncer(session, logger.Component("announcer"))))
	vouchSvc := vouchservice.NewVouchService(st.repo, locker, stats, cfg, logger.Component("vouches"))
	statsSvc := statsservice.NewStatsService(st.repo, stats, cfg, logger.Component("stats"))

	giveawayHandler := giveawaydiscord.NewGiveawayHandler(giveawaySvc)
	statsHandler := statsdiscord.NewStatsHandler(statsSvc)
	vouchHandler := vouchdiscord.NewVouchHandler(vouchSvc, discord.StatePermissions{Session: session})

	router := discord.NewRouter(logger.Component("interactions"))
	giveawayHandler.RegisterRoutes(router)
	statsHandler.RegisterRoutes(router)
	vouchHandler.RegisterRoutes(router)

	messages := vouchdiscord.NewMessageHandler(vouchSvc, cfg.Vouch.ReplyTTL, logger.Component("vouch-keyword"))
	session.AddHandler(router.Handle)
	session.AddHandler(messages.Handle)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer session.Close()

	var subcommands []*discordgo.ApplicationCommandOption
	subcommands = append(subcommands, giveawayHandler.Subcommands()...)
	subcommands = append(subcommands, statsHandler.Subcommands()...)
	subcommands = append(subcommands, vouchHandler.Subcommands()...)
	gw := discord.GroupCommand("gw", "Giveaway commands", subcommands...)
	if err := discord.RegisterCommands(session, cfg.Discord.GuildID, []*discordgo.ApplicationCommand{gw}); err != nil {
		return err
	}

	scanner := giveawayservice.NewExpirationService(giveawaySvc, cfg, logger.Component("scanner"))
	scanner.Start()
	defer scanner.Stop()

	var server *http.Server
	if cfg.HTTP.Enabled {
		server = newHTTPServer(cfg, giveawaySvc, scanner, statsSvc, checks)
		go func() {
			logger.Info().Int("port", cfg.HTTP.Port).Msg("Starting HTTP server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("HTTP server failed")
				stop()
			}
		}()
	}

	logger.Info().Msg("Bot is running")
	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server forced to shutdown")
		}
	}
	return nil
}

func newHTTPServer(
	cfg *config.Config,
	giveawaySvc giveawayservice.GiveawayService,
	scanner *giveawayservice.ExpirationService,
	statsSvc statsservice.StatsService,
	checks []statshttp.ReadinessCheck,
) *http.Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	httpLogger := logger.Component("http")

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler(httpLogger))
	r.Use(middleware.Logger(httpLogger))
	r.Use(middleware.Errors(httpLogger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.HTTP.Origin}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	r.Use(cors.New(corsConfig))

	statshttp.NewHealthHandler(serviceName, checks...).RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.BearerAuth(cfg.HTTP.APIToken, httpLogger))
	v1.Use(middleware.SnowflakeParams(httpLogger, "guild_id", "user_id"))
	statshttp.NewStatsHandler(statsSvc).RegisterRoutes(v1)
	giveawayhttp.NewGiveawayHandler(giveawaySvc, scanner).RegisterRoutes(v1)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
