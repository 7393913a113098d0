package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	docs "github.com/tazhibayda/foodshare-service/docs"
	"github.com/tazhibayda/foodshare-service/internal/config"
	api "github.com/tazhibayda/foodshare-service/internal/http"
	"github.com/tazhibayda/foodshare-service/internal/hub"
	"github.com/tazhibayda/foodshare-service/internal/listing"
	"github.com/tazhibayda/foodshare-service/internal/log"
	"github.com/tazhibayda/foodshare-service/internal/metrics"
	"github.com/tazhibayda/foodshare-service/internal/queue"
	"github.com/tazhibayda/foodshare-service/internal/repo"
	"github.com/tazhibayda/foodshare-service/internal/sweep"
	"go.uber.org/zap"
)

// @title FoodShare API
// @version 0.1.0
// @description Perishable food donation listings: helpers donate, NGOs claim.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.ProdLog)
	if err != nil {
		stdlog.Fatalf("log init: %v", err)
	}
	defer log.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		store repo.Listings
		ping  func(ctx context.Context) error
	)
	switch cfg.StoreDriver {
	case "mongo":
		ms, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("mongo connect", zap.Error(err))
		}
		defer ms.Close(context.Background())
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.Fatal("mongo indexes", zap.Error(err))
		}
		store, ping = ms, ms.Ping
	default:
		store = repo.NewMemory()
	}

	var rds *repo.Redis
	if cfg.RedisAddr != "" {
		rds = repo.NewRedis(cfg.RedisAddr)
		defer rds.Close()
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		p, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
		pub = p
	}
	defer pub.Close()

	h := hub.New()
	defer h.Close()

	svc := listing.NewService(store, h, pub)

	sw := sweep.New(store, svc, time.Duration(cfg.SweepInterval)*time.Second)
	sw.Start()
	defer sw.Stop()

	docs.SwaggerInfo.BasePath = "/"

	handler := api.NewHandler(svc, h)
	handler.Ping = ping
	r := api.NewRouter(handler, cfg.JWTSecret, rds, cfg.RateLimitPerMin)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("foodshare-service listening", zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
