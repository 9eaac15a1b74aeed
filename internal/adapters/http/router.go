package http

import (
	"context"
	"time"

	"github.com/dkeye/Trivia/internal/adapters/signal"
	"github.com/dkeye/Trivia/internal/app/orch"
	"github.com/dkeye/Trivia/internal/config"
	"github.com/dkeye/Trivia/internal/core"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TokenIssuer mints identity tokens for anonymous players.
type TokenIssuer interface {
	IssueGuest(name string, ttl time.Duration) (domain.Identity, string, error)
}

// Deps are the collaborators the router exposes. Nil health checkers are
// left out of /api/health.
type Deps struct {
	Orch   *orch.Orchestrator
	Signal *signal.SignalWSController
	Issuer TokenIssuer
	Trivia core.HealthChecker
	Redis  core.HealthChecker
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("TriviaSessions", store))
	r.Use(IdentityTokenMiddleware())

	h := &handlers{orch: deps.Orch, issuer: deps.Issuer}
	health := &healthHandler{trivia: deps.Trivia, redis: deps.Redis}

	api := r.Group("/api")
	api.GET("/health", health.get)
	if deps.Issuer != nil {
		api.POST("/auth/guest", h.guest)
	}

	game := api.Group("/game")
	game.POST("", h.create)
	game.DELETE("", h.leave)
	game.GET("/:id", h.join)
	game.GET("/:id/joinable", h.joinable)
	game.GET("/:id/state", h.view)
	game.POST("/:id/rejoin", h.rejoin)
	game.PATCH("/:id/settings", h.updateSettings)
	game.PUT("/:id/status", h.setStatus)
	game.POST("/:id/start", h.start)
	game.POST("/:id/next", h.next)
	game.POST("/:id/answer", h.answer)

	if deps.Signal != nil {
		api.GET("/ws", func(c *gin.Context) {
			log.Debug().Str("module", "adapters.http").Msg("ws endpoint hit")
			deps.Signal.HandleSignal(ctx, c)
		})
	}

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
