package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/api"
	"github.com/supportplatform/marketplace-api/internal/api/handler"
	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
	"github.com/supportplatform/marketplace-api/internal/core/service"
	mongostore "github.com/supportplatform/marketplace-api/internal/infrastructure/db/mongo"
	redisstore "github.com/supportplatform/marketplace-api/internal/infrastructure/db/redis"
	"github.com/supportplatform/marketplace-api/internal/infrastructure/queue"
	"github.com/supportplatform/marketplace-api/internal/infrastructure/realtime"
	"github.com/supportplatform/marketplace-api/internal/pkg/config"
	"github.com/supportplatform/marketplace-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title                       Support Platform API
// @version                     1.0
// @description                 Repair and tutoring marketplace: requests, live chat, reviews and a resource library.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "supportd",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("supportd stopped")
	}
	log.Info().Msg("supportd stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	users := mongostore.NewUserRepository(db)
	experts := mongostore.NewExpertRepository(db)
	earnings := mongostore.NewEarningRepository(db)
	repairs := mongostore.NewRequestRepository(db, mongostore.CollectionRepairRequests)
	questions := mongostore.NewRequestRepository(db, mongostore.CollectionAcademicQuestions)
	reviews := mongostore.NewReviewRepository(db)
	tx := mongostore.NewTxRunner(client, cfg.Mongo.Transactions)
	cache := redisstore.NewDirectoryCache(rdb, cfg.Redis.DirectoryCacheTTL)

	// --- Services ---
	stats := service.NewExpertStats(experts, reviews, cache, log)
	chats := service.NewChatService(mongostore.NewChatRepository(db), users, log)
	repairSvc := service.NewRequestService(domain.RepairDomain, repairs,
		mongostore.NewResolutionRepository(db, mongostore.CollectionRepairSolutions), earnings, stats, tx, log)
	academicSvc := service.NewRequestService(domain.AcademicDomain, questions,
		mongostore.NewResolutionRepository(db, mongostore.CollectionAcademicAnswers), earnings, stats, tx, log)

	// --- Realtime chat ---
	broadcaster := redisstore.NewBroadcaster(rdb, log)
	relay := queue.NewRelay(cfg.ChatWorkers, chats, broadcaster, log)
	hub := realtime.NewHub(broadcaster, log)

	var workers sync.WaitGroup
	relay.Start(ctx)
	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("chat hub stopped")
		}
	}()

	e := api.NewRouter(api.Deps{
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
		Auth:      service.NewAuthService(users, experts, cache, cfg.JWTSecret, cfg.TokenTTL, log),
		Experts:   service.NewExpertService(users, experts, earnings, cache, log),
		Repairs:   repairSvc,
		Academics: academicSvc,
		Chats:     chats,
		Reviews: service.NewReviewService(reviews, users, map[domain.ServiceKind]ports.ServiceRequestRepository{
			domain.KindRepair:   repairs,
			domain.KindAcademic: questions,
		}, stats, log),
		Resources: service.NewResourceService(mongostore.NewResourceRepository(db), mongostore.NewBookmarkRepository(db), log),
		Relay:     relay,
		Hub:       hub,
		Readiness: map[string]handler.Pinger{
			"mongo": handler.MongoPinger{DB: db},
			"redis": handler.RedisPinger{Client: rdb},
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	relay.Wait()
	workers.Wait()
	return nil
}
