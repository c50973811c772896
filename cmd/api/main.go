package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/changefeed/memfeed"
	"youtrait/internal/changefeed/pgfeed"
	"youtrait/internal/changefeed/redisfeed"
	"youtrait/internal/config"
	"youtrait/internal/db"
	"youtrait/internal/filter"
	apihttp "youtrait/internal/http"
	"youtrait/internal/repository"
	"youtrait/internal/service"
	"youtrait/internal/storage"
	"youtrait/internal/suggestion"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool, cfg.ChangeFeedChannel); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	traitRepo := repository.NewPgTraitRepository(pool)
	notificationRepo := repository.NewPgNotificationRepository(pool)
	suggestionRepo := repository.NewPgSuggestionRepository(pool)
	bestieRepo := repository.NewPgBestieRepository(pool)
	reactionRepo := repository.NewPgReactionRepository(pool)

	var (
		loginLimiter service.RateLimiter
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	loginWindow := time.Duration(cfg.LoginRateWindowMinutes) * time.Minute
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisRateLimiter(redisClient, "", loginWindow, cfg.LoginRateMax)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewRateLimiter(loginWindow, cfg.LoginRateMax)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	feed, publisher := buildFeed(cfg, redisClient, logger)
	logger.Info("change feed ready", zap.String("driver", cfg.ChangeFeedDriver))

	avatars := storage.NewDisabledAvatarStore("AVATAR_BUCKET not configured")
	if cfg.AvatarBucket != "" {
		gcsClient, err := gcs.NewClient(ctx)
		if err != nil {
			logger.Warn("gcs client init failed", zap.Error(err))
		} else {
			defer gcsClient.Close()
			avatars = storage.NewGCSAvatarStore(gcsClient, cfg.AvatarBucket, cfg.AvatarPublicBaseURL)
		}
	}

	contentFilter := filter.Default(cfg.FilterExtraWords...)
	emitter := service.NewChangeEmitter(publisher, logger)

	userSvc := service.NewUserService(logger, userRepo, profileRepo, loginLimiter)
	traitSvc := service.NewTraitService(logger, traitRepo, profileRepo, notificationRepo, contentFilter, emitter)
	notificationSvc := service.NewNotificationService(logger, notificationRepo)
	profileSvc := service.NewProfileService(logger, profileRepo, avatars, contentFilter)
	writer := service.NewRealtimeWriter(logger, reactionRepo, bestieRepo, profileRepo, emitter)
	sessions := service.NewSessionRegistry(logger, feed, writer, service.SessionRepos{
		Users:         userRepo,
		Profiles:      profileRepo,
		Traits:        traitRepo,
		Notifications: notificationRepo,
		Besties:       bestieRepo,
	})
	defer sessions.Close()
	engine := suggestion.NewEngine(profileRepo, traitRepo, suggestionRepo, logger)

	router := apihttp.NewRouter(logger, jwtSvc, apihttp.Handlers{
		Auth:          apihttp.NewAuthHandler(logger, userSvc, jwtSvc, sessions),
		Profile:       apihttp.NewProfileHandler(logger, profileSvc, sessions),
		Traits:        apihttp.NewTraitHandler(logger, traitSvc, sessions),
		Notifications: apihttp.NewNotificationHandler(logger, notificationSvc, sessions),
		Suggestions:   apihttp.NewSuggestionHandler(logger, engine),
		Social:        apihttp.NewSocialHandler(logger, sessions),
		Realtime:      apihttp.NewRealtimeHandler(logger, sessions),
		Filter:        apihttp.NewFilterHandler(logger, contentFilter),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildFeed elige el change feed. Con postgres los triggers publican solos y
// no hace falta publisher; con redis y memory los servicios publican cada cambio.
func buildFeed(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (changefeed.Feed, changefeed.Publisher) {
	switch cfg.ChangeFeedDriver {
	case config.ChangeFeedRedis:
		if redisClient == nil {
			logger.Fatal("redis change feed requires REDIS_ADDR")
		}
		f := redisfeed.New(redisClient, cfg.ChangeFeedRedisPrefix, logger)
		return f, f
	case config.ChangeFeedMemory:
		f := memfeed.New(logger)
		return f, f
	default:
		return pgfeed.New(cfg.DatabaseURL, cfg.ChangeFeedChannel, logger), nil
	}
}
