package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milkdirect-be/internal/assistant"
	"milkdirect-be/internal/cache"
	"milkdirect-be/internal/cart"
	"milkdirect-be/internal/config"
	"milkdirect-be/internal/db"
	"milkdirect-be/internal/events"
	"milkdirect-be/internal/logger"
	"milkdirect-be/internal/order"
	"milkdirect-be/internal/predictor"
	"milkdirect-be/internal/seller"
	"milkdirect-be/internal/transport"
	"milkdirect-be/internal/user"

	"go.uber.org/zap"
)

const sellerCacheTTL = 5 * time.Minute

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	// Redis is optional: without it the seller catalog reads straight from
	// Postgres.
	var sellerCache seller.StringCache
	if cfg.RedisAddr != "" {
		redis := cache.New(cfg.RedisAddr)
		if err := redis.Ping(context.Background()); err != nil {
			log.Warn("redis unreachable, seller cache disabled", zap.Error(err))
		} else {
			defer redis.Close()
			sellerCache = redis
		}
	}

	// AMQP is optional too: checkout still works without fulfillment events.
	var notifier order.Notifier = events.NopNotifier{}
	if cfg.AmqpURL != "" {
		conn, ch, err := events.Connect(cfg.AmqpURL)
		if err != nil {
			log.Warn("amqp unreachable, order events disabled", zap.Error(err))
		} else {
			defer conn.Close()
			defer ch.Close()
			notifier = events.NewOrderNotifier(events.NewPublisher(ch, events.Exchange))
		}
	}

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	sellerRepo := seller.NewRepository(database)
	sellerSvc := seller.NewService(sellerRepo, sellerCache, sellerCacheTTL)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, cartRepo, notifier)

	model := predictor.NewModel()
	chat := assistant.NewClient(cfg.ChatGatewayURL, cfg.ChatGatewayKey)

	handler := transport.NewHandler(userSvc, sellerSvc, cartSvc, orderSvc, model, chat)
	router := transport.NewRouter(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
