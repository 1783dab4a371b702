package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"ticketing/internal/app"
	"ticketing/internal/config"
	"ticketing/internal/observability"
)

func main() {
	log.Init(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logrus.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	tp, err := observability.ConfigureTraceProvider(cfg.JaegerEndpoint)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer redisClient.Close()

	watermillLogger := log.NewWatermill(logrus.NewEntry(logrus.StandardLogger()))

	a, err := app.NewApp(cfg, watermillLogger, redisClient, db)
	if err != nil {
		panic(err)
	}

	if err := a.Run(ctx); err != nil {
		logrus.WithError(err).Error("Service stopped")
		os.Exit(1)
	}
}
