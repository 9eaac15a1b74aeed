package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Trivia/internal/adapters/broadcast"
	router "github.com/dkeye/Trivia/internal/adapters/http"
	"github.com/dkeye/Trivia/internal/adapters/identity"
	wsignal "github.com/dkeye/Trivia/internal/adapters/signal"
	"github.com/dkeye/Trivia/internal/adapters/trivia"
	"github.com/dkeye/Trivia/internal/app"
	"github.com/dkeye/Trivia/internal/app/orch"
	"github.com/dkeye/Trivia/internal/config"
	"github.com/dkeye/Trivia/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("jwt_secret is empty, tokens are trivially forgeable")
	}

	clock := core.SystemClock()
	rnd := core.NewRandomSource()
	tokens := identity.NewJWT(cfg.JWTSecret)
	questions := trivia.NewClient(cfg.Trivia.BaseURL, cfg.Trivia.Timeout)
	hub := wsignal.NewHub()

	deps := router.Deps{Issuer: tokens, Trivia: questions}
	var sink core.BroadcastSink = hub
	var redisSink *broadcast.RedisSink
	if cfg.Redis.Addr != "" {
		redisSink = broadcast.NewRedisSink(
			broadcast.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
			cfg.Redis.ChannelPrefix, 0,
		)
		sink = broadcast.NewFanout(hub, redisSink)
		deps.Redis = redisSink
	}

	game := &orch.Orchestrator{
		Registry:  app.NewRegistry(app.NewIDGenerator(rnd, cfg.Game.IDLength)),
		Timers:    app.NewTimers(clock),
		Policy:    app.TimeStreakPolicy{MaxPoints: cfg.Game.MaxPoints},
		Identity:  tokens,
		Questions: questions,
		Sink:      sink,
		Clock:     clock,
		Rand:      rnd,
		Game: orch.GameDefaults{
			Settings:   cfg.Game.Settings(),
			MaxPlayers: cfg.Game.MaxPlayers,
			IntroGrace: cfg.Game.IntroGrace,
		},
	}

	limiter := wsignal.NewEventRateLimiter(cfg.WS.RateLimit, cfg.WS.RateInterval)
	deps.Orch = game
	deps.Signal = wsignal.NewSignalWSController(game, hub, limiter, wsignal.Options{
		ReadLimit:  cfg.WS.ReadLimit,
		PingPeriod: cfg.WS.PingPeriod,
	})

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Trivia server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx, time.Minute)
	})
	if redisSink != nil {
		g.Go(func() error {
			return redisSink.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	game.Shutdown()
	if redisSink != nil {
		if err := redisSink.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	log.Info().Int("sessions", game.LiveSessions()).Msg("Server exited gracefully")
}
