package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spimforce/campaign-sender/internal/attach"
	"github.com/spimforce/campaign-sender/internal/bridge"
	"github.com/spimforce/campaign-sender/internal/store"
	"github.com/spimforce/campaign-sender/pkg/config"
	"github.com/spimforce/campaign-sender/pkg/db"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/rmq"
	"github.com/spimforce/campaign-sender/services/send-scheduler/engine"
)

func main() {
	logx.Init()
	defer logx.Sync()

	config.MustLoadScheduler()
	cfg := config.Scheduler

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		logx.L().Fatalw("db_open_error", "path", cfg.DBPath, "error", err)
	}
	defer sqlDB.Close()

	st := store.New(sqlDB)
	if err := st.Bootstrap(context.Background()); err != nil {
		logx.L().Fatalw("db_bootstrap_error", "error", err)
	}

	cons, err := rmq.NewConsumer(cfg.RMQURL, cfg.ForceQueue)
	if err != nil {
		logx.L().Fatalw("rmq_consumer_error", "error", err)
	}
	defer cons.Close()

	pub, err := rmq.NewPublisher(cfg.RMQURL, cfg.UpdateQueue)
	if err != nil {
		logx.L().Fatalw("rmq_publisher_error", "error", err)
	}
	defer pub.Close()

	br := bridge.NewClient(cfg.BridgeURL, cfg.BridgeTimeout)
	mat := attach.NewMaterializer(cfg.BridgeTimeout)

	exec := engine.NewExecutor(st, br, mat)
	scanner := engine.NewScanner(st, exec)
	ctrl := engine.NewController(st, scanner, engine.NewNotifier(pub), cfg.ThrottleWindow)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx, cfg.TickInterval); err != nil {
		logx.L().Fatalw("scheduler_start_error", "error", err)
	}
	defer ctrl.Stop()

	listener := engine.NewListener(cons, ctrl)
	if err := listener.Run(ctx); err != nil && err != context.Canceled {
		logx.L().Errorw("force_listener_error", "error", err)
	}

	logx.L().Infow("send-scheduler stopped")
}
