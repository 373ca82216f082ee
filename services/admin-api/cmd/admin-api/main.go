package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spimforce/campaign-sender/internal/store"
	"github.com/spimforce/campaign-sender/pkg/config"
	"github.com/spimforce/campaign-sender/pkg/db"
	"github.com/spimforce/campaign-sender/pkg/logx"
	"github.com/spimforce/campaign-sender/pkg/rmq"
	"github.com/spimforce/campaign-sender/services/admin-api/server"
)

func main() {
	logx.Init()
	defer logx.Sync()

	config.MustLoadAPI()
	cfg := config.API

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		logx.L().Fatalw("db_open_error", "path", cfg.DBPath, "error", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logx.L().Warnw("db_close_error", "error", err)
		}
	}()

	st := store.New(sqlDB)
	if err := st.Bootstrap(context.Background()); err != nil {
		logx.L().Fatalw("db_bootstrap_error", "error", err)
	}

	pub, err := rmq.NewPublisher(cfg.RMQURL, cfg.ForceQueue)
	if err != nil {
		logx.L().Fatalw("rmq_init_error", "error", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logx.L().Warnw("rmq_publisher_close_error", "error", err)
		}
	}()

	h := server.NewHandlers(st, pub)
	srv := server.NewHTTPServer(":"+cfg.Port, h)

	go func() {
		logx.L().Infow("api_listen_start", "addr", ":"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.L().Fatalw("http_server_error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logx.L().Infow("signal_received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logx.L().Errorw("server_shutdown_error", "error", err)
	} else {
		logx.L().Infow("server_shutdown_success")
	}
}
