package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/GrantHub/internal/aggregator"
	"github.com/LJTian/GrantHub/internal/api"
	"github.com/LJTian/GrantHub/internal/config"
	"github.com/LJTian/GrantHub/internal/logging"
	"github.com/LJTian/GrantHub/internal/scheduler"
	"github.com/LJTian/GrantHub/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Printf("config loaded: %s", cfg.Summary())

	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	s, err := scheduler.New(cfg.CronSpec, aggregator.FromConfig(cfg), store)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	api.NewServer(s, store).RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting api server at %s (store=%s) ...", srv.Addr, store.Location())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exit: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	// 一轮采集可能持续较久（每个请求之间有固定暂停），留足等待时间
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	s.Stop(shutdownCtx)
}
