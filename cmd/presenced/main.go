package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/apiserver"
	"github.com/trackwave/presenced/internal/common/config"
	"github.com/trackwave/presenced/internal/gateway"
	"github.com/trackwave/presenced/internal/kv"
	"github.com/trackwave/presenced/internal/presence"
	"github.com/trackwave/presenced/internal/scheduler"
	"github.com/trackwave/presenced/internal/transport"
	"github.com/trackwave/presenced/pkg/logger"
	"github.com/trackwave/presenced/pkg/metrics"
	"github.com/trackwave/presenced/pkg/version"
)

var configPath = flag.String("conf", "", "path to configuration file")

func getConfigPath() string {
	if *configPath != "" {
		return *configPath
	}
	if envPath := os.Getenv("PRESENCED_CONF"); envPath != "" {
		return envPath
	}
	return "configs/presenced.yaml"
}

func main() {
	flag.Parse()

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	store, err := kv.NewStore(log, cfg.Store)
	if err != nil {
		log.Fatal("failed to initialize session store", zap.Error(err))
	}

	sched := scheduler.NewCronScheduler(log)
	ws := transport.NewWSTransport(log)
	m := metrics.New("presenced")

	client := gateway.NewClient(log, store, sched, ws, nil, cfg.App.ClientID, cfg.Gateway, m)
	svc := presence.NewService(log, client, cfg.App)

	// Timer firings and inbound frames both route through the service
	sched.SetCallback(svc)
	ws.SetHandler(svc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apiserver.NewServer(log, svc, m).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}
	go func() {
		log.Info("starting presence API",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version.Get()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to shut down server", zap.Error(err))
	}

	if err := sched.Close(); err != nil {
		log.Error("failed to stop scheduler", zap.Error(err))
	}
	ws.CloseAll()
}
