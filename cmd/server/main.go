package main // Entry point package

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dohyun-ko/animal-care-api/internal/auth"
	"github.com/dohyun-ko/animal-care-api/internal/config"
	"github.com/dohyun-ko/animal-care-api/internal/database"
	"github.com/dohyun-ko/animal-care-api/internal/handler"
	"github.com/dohyun-ko/animal-care-api/internal/logger"
	"github.com/dohyun-ko/animal-care-api/internal/middleware"
	"github.com/dohyun-ko/animal-care-api/internal/queue"
	"github.com/dohyun-ko/animal-care-api/internal/repository"
	"github.com/dohyun-ko/animal-care-api/internal/router"
	"github.com/dohyun-ko/animal-care-api/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is absent; dependents degrade

	uploads, err := storage.NewLocal(cfg.UploadRoot)
	if err != nil {
		log.Fatal().Err(err).Str("root", cfg.UploadRoot).Msg("upload dir unavailable")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)
	inquiries := repository.NewInquiryRepo(db)
	replies := repository.NewReplyRepo(db)
	notices := repository.NewNoticeRepo(db)
	lostReports := repository.NewLostReportRepo(db)
	dogs := repository.NewDogDetailsRepo(db)

	codec := auth.NewCodec(cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLog(log))

	router.RegisterRoutes(e, uploads.Root())
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, codec, users, tokens, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAPI(e, router.API{
		Inquiries:   handler.NewInquiryHandler(inquiries, users),
		Replies:     handler.NewReplyHandler(replies, inquiries, users, log),
		Notices:     handler.NewNoticeHandler(notices, users),
		LostReports: handler.NewLostReportHandler(lostReports, users, uploads, log),
		MyPage:      handler.NewMyPageHandler(users, inquiries, lostReports, tokens, log),
		AdminUsers:  handler.NewAdminUserHandler(users, inquiries, lostReports, tokens, log),
		Shelters:    handler.NewShelterHandler(cfg, rdb, log),
		ImageSearch: handler.NewImageSearchHandler(cfg, dogs, log),
	}, middleware.ResolvePrincipal(codec, log))

	// Reply notifications drain in the background; the consumer reconnects
	// on its own if the broker goes away.
	go queue.StartNotifyConsumer(log)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
