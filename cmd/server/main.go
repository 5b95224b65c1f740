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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/connecthub/internal/config"
	"github.com/iliyamo/connecthub/internal/database"
	"github.com/iliyamo/connecthub/internal/handler"
	"github.com/iliyamo/connecthub/internal/mail"
	"github.com/iliyamo/connecthub/internal/media"
	"github.com/iliyamo/connecthub/internal/middleware"
	"github.com/iliyamo/connecthub/internal/queue"
	"github.com/iliyamo/connecthub/internal/repository"
	"github.com/iliyamo/connecthub/internal/router"
	"github.com/iliyamo/connecthub/internal/service"
	"github.com/iliyamo/connecthub/internal/session"
)

const sessionCookie = "connecthub_session"

func main() {
	cfg := config.Load()
	redisCfg := config.LoadRedisConfig()
	mailCfg := config.LoadMailConfig(cfg.AppName)
	mediaCfg := config.LoadMediaConfig()
	brokerCfg := config.LoadBrokerConfig()
	locCfg := config.LoadLocationConfig(cfg.AppName)
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Fatalf("redis unreachable at %s; sessions cannot be stored", redisCfg.Addr)
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	otps := repository.NewOTPRepo(db)
	sessionLog := repository.NewSessionRepo(db)
	posts := repository.NewPostRepo(db)
	comments := repository.NewCommentRepo(db)
	likes := repository.NewLikeRepo(db)
	ratings := repository.NewRatingRepo(db)

	store, err := media.Open(mediaCfg)
	if err != nil {
		log.Fatalf("media store: %v", err)
	}
	images := media.NewProcessor(mediaCfg.MaxUploadSize, mediaCfg.Quality)

	mailer := mail.NewMailer(mailCfg, cfg.AppName)
	var dispatcher service.OTPDispatcher = mailer
	if mailCfg.Dispatch == "queue" {
		pub := queue.NewAMQPPublisher(brokerCfg.AMQPURL, brokerCfg.OTPQueue)
		defer pub.Close()
		dispatcher = pub
		go func() {
			if err := queue.StartOTPMailConsumer(ctx, brokerCfg.AMQPURL, brokerCfg.OTPQueue, mailer.SendOTP); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("otp mail consumer stopped: %v", err)
			}
		}()
	}

	var activity service.ActivityPublisher = service.NopPublisher{}
	if kp := queue.NewKafkaPublisher(brokerCfg.KafkaBrokers, brokerCfg.ActivityTopic); kp != nil {
		defer kp.Close()
		activity = kp
	}

	auth := service.NewAuthService(service.AuthConfig{
		SessionSecret:     cfg.SessionSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		PasswordMinLength: cfg.PasswordMinLength,
		OTPTTL:            cfg.OTPTTL,
		OTPResendWindow:   cfg.OTPResendWindow,
	}, service.AuthDeps{
		Users:      users,
		OTPs:       otps,
		Sessions:   session.NewRedisStore(rdb, "session"),
		SessionLog: sessionLog,
		Mailer:     dispatcher,
		Throttle:   service.NewRedisThrottle(rdb, "throttle"),
		Activity:   activity,
	})
	content := service.NewContentService(posts, comments, store, images, activity, cfg.SentimentMode)
	engagement := service.NewEngagementService(posts, likes, ratings, activity)
	profiles := service.NewProfileService(users, posts, store, images)
	location := service.NewLocationService(locCfg.NominatimURL, locCfg.UserAgent, locCfg.Timeout)
	query := service.NewQueryService(posts, users)

	go purgeSessionLog(ctx, auth, time.Hour)

	handler.RequestTimeout = cfg.RequestTimeout

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.AppURL},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("6M"))
	if rlCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}
	if mediaCfg.Store != "cloudinary" {
		e.Static(mediaCfg.PublicPrefix, mediaCfg.UploadDir)
	}

	guards := router.Guards{
		Required: middleware.RequireSession(auth, sessionCookie),
		Optional: middleware.OptionalSession(auth, sessionCookie),
	}
	if rlCfg.Enabled {
		guards.AuthLimit = middleware.NewTokenBucket(config.AuthRateLimitConfig(rlCfg), rdb)
	}
	if cacheCfg.Enabled {
		guards.Cache = middleware.NewRedisCache(cacheCfg.WithMethods("route_query", http.MethodGet), rdb)
		guards.BodyCache = middleware.NewRedisCache(cacheCfg.WithMethods("route_query_body", http.MethodPost), rdb)
	}

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(auth, profiles, handler.CookieSettings{Name: sessionCookie, Secure: cfg.CookieSecure}), guards)
	router.RegisterContent(e,
		handler.NewPostHandler(content, mediaCfg.MaxUploadSize, mediaCfg.PublicPrefix),
		handler.NewCommentHandler(content, mediaCfg.PublicPrefix),
		handler.NewEngagementHandler(engagement),
		guards)
	router.RegisterProfile(e, handler.NewProfileHandler(profiles, mediaCfg.MaxUploadSize, mediaCfg.PublicPrefix), guards)
	router.RegisterLookup(e, handler.NewLocationHandler(location), handler.NewQueryHandler(query), guards)
	router.RegisterFallback(e)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// purgeSessionLog trims expired rows from the session log until ctx ends.
func purgeSessionLog(ctx context.Context, auth *service.AuthService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := auth.PurgeSessionLog(ctx)
			if err != nil {
				log.Printf("purge session log: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired session rows", n)
			}
		}
	}
}
