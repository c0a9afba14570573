package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/josealejferFB/krizo-backend/internal/cache"
	"github.com/josealejferFB/krizo-backend/internal/config"
	"github.com/josealejferFB/krizo-backend/internal/db"
	"github.com/josealejferFB/krizo-backend/internal/logger"
	appmw "github.com/josealejferFB/krizo-backend/internal/middleware"
	"github.com/josealejferFB/krizo-backend/internal/server"
	"github.com/josealejferFB/krizo-backend/internal/storage"
	"github.com/josealejferFB/krizo-backend/internal/sweeper"
)

const limiterIdle = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	rt, err := config.LoadRuntime()
	if err != nil {
		log.Fatalf("runtime config: %v", err)
	}
	lg := logger.New("krizo-api", rt.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		Log:                 lg,
		AllowedOriginSuffix: rt.AllowedOriginSuffix,
		MessageRatePerSec:   rt.MessageRatePerSec,
		GitSHA:              rt.GitSHA,
		BuildTime:           rt.BuildTime,
	}

	if rt.FirebaseProjectID != "" {
		auth, err := appmw.NewAuthMiddleware(ctx, rt.FirebaseProjectID)
		if err != nil {
			lg.Error("firebase auth init failed; protected routes will reject", logger.Error(err))
		} else {
			opts.Auth = auth
		}
	} else {
		lg.Warning("FIREBASE_PROJECT_ID not set; protected routes will reject")
	}

	if rt.RedisURL != "" {
		c, err := cache.NewWorkerServicesCache(rt.RedisURL, 5*time.Minute)
		if err != nil {
			lg.Error("redis cache disabled", logger.Error(err))
		} else {
			defer c.Close()
			if err := c.Ping(ctx); err != nil {
				lg.Warning("redis not reachable yet", logger.Error(err))
			}
			opts.Cache = c
		}
	}

	if rt.StorageBucket != "" {
		proofs, err := storage.NewGCSProofStore(ctx, rt.StorageBucket, rt.CredentialsFile, lg)
		if err != nil {
			lg.Error("proof uploads disabled", logger.Error(err))
		} else {
			defer proofs.Close()
			opts.Proofs = proofs
		}
	}

	srv := server.New(opts)
	addr := ":" + rt.Port
	errCh := make(chan error, 1)

	go func() {
		lg.Info("starting server", logger.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	go func() {
		cfg, err := config.Load()
		if err != nil {
			lg.Error("config load error", logger.Error(err))
			return
		}
		conn, err := db.Connect(cfg)
		if err != nil {
			lg.Error("db connect error", logger.Error(err))
			return
		}
		if err := db.Migrate(conn); err != nil {
			lg.Error("auto migrate error", logger.Error(err))
			return
		}
		srv.SetDB(conn)
		lg.Info("database ready")
	}()

	sw, err := sweeper.New(srv.Requests(), rt.RequestTTL, rt.SweepSchedule, lg)
	if err != nil {
		lg.Error("request sweeper disabled", logger.Error(err))
	} else {
		sw.Start()
	}

	go func() {
		t := time.NewTicker(limiterIdle)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := srv.Limiter().Cleanup(limiterIdle); n > 0 {
					lg.Debug("rate limiter cleanup", logger.Int("removed", n))
				}
			}
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", logger.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		lg.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sw != nil {
		sw.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", logger.Error(err))
	}
}
