package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"coinpal/internal/api"
	"coinpal/internal/backend"
	"coinpal/internal/config"
	"coinpal/internal/logger"
	"coinpal/internal/pinning"
	"coinpal/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.String("config", os.Getenv("COINPAL_CONFIG"), "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	var pinner pinning.Pinner = pinning.Disabled
	if cfg.Pinning.Enabled() {
		pinner = pinning.NewPinata(cfg.Pinning, backend.NewHTTPClient())
	} else {
		logger.Warnf("pinning credentials not configured, uploads will fail")
	}
	dispatcher := worker.NewDispatcher(pinner, cfg.Pinning.Workers, cfg.Pinning.QueueSize)
	defer dispatcher.Stop()

	gateway := pinning.NewGateway(cfg.Pinning.Gateway, cfg.Pinning.URLExpiry)
	handler := api.NewHandler(dispatcher, gateway, cfg.Server.MaxUploadBytes)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(cfg.CORS, handler)

	srv := &http.Server{
		Addr:           cfg.Server.Address,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	logger.Infof("upload server listening on %s", cfg.Server.Address)
	if err := runServer(ctx, srv); err != nil {
		logger.Fatalf("server error: %v", err)
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("graceful shutdown failed: %v", err)
		}
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
