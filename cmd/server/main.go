// server exposes a single venue over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-allocator/internal/command"
	"github.com/iliyamo/venue-seat-allocator/internal/config"
	"github.com/iliyamo/venue-seat-allocator/internal/database"
	"github.com/iliyamo/venue-seat-allocator/internal/handler"
	"github.com/iliyamo/venue-seat-allocator/internal/journal"
	"github.com/iliyamo/venue-seat-allocator/internal/logger"
	"github.com/iliyamo/venue-seat-allocator/internal/middleware"
	"github.com/iliyamo/venue-seat-allocator/internal/queue"
	"github.com/iliyamo/venue-seat-allocator/internal/router"
	"github.com/iliyamo/venue-seat-allocator/internal/service"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		l := logger.New(logger.Options{})
		l.Warn().Err(err).Msg("dotenv")
	}
	cfg, err := config.Load()
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	venueOpts := []venue.Option{venue.WithLogger(log), venue.WithMaxSeats(cfg.MaxSeats)}
	if cfg.Events.Enabled {
		pub := service.NewPublisher(cfg.Events.URL, cfg.Events.Queue, cfg.Events.Buffer, log)
		go pub.Run(ctx)
		venueOpts = append(venueOpts, venue.WithObserver(pub))
		if cfg.Events.ConsumeLog != "" {
			consumer := &queue.Consumer{URL: cfg.Events.URL, Queue: cfg.Events.Queue, LogPath: cfg.Events.ConsumeLog, Log: log}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("seat-consumer stopped")
				}
			}()
		}
	}

	sessionOpts := []command.SessionOption{command.WithSessionLogger(log)}
	if cfg.Journal.Enabled {
		db, err := database.Open(ctx, cfg.Journal)
		if err != nil {
			log.Fatal().Err(err).Msg("open journal database")
		}
		defer db.Close()
		j, err := journal.New(ctx, db, cfg.Journal.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("prepare journal")
		}
		sessionOpts = append(sessionOpts, command.WithJournal(j))
	}
	session := command.NewSession(venue.New(venueOpts...), sessionOpts...)

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e)
	router.RegisterVenue(e, handler.NewVenueHandler(session, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, session.Revision, log),
	)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}
