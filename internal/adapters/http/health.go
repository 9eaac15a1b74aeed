package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/Trivia/internal/core"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

type running struct {
	Running bool `json:"running"`
}

type healthResult struct {
	API       running  `json:"api"`
	TriviaAPI *running `json:"triviaAPI,omitempty"`
	Redis     *running `json:"redis,omitempty"`
}

type healthHandler struct {
	trivia core.HealthChecker
	redis  core.HealthChecker
}

func probe(ctx context.Context, hc core.HealthChecker) *running {
	if hc == nil {
		return nil
	}
	return &running{Running: hc.Healthy(ctx)}
}

// get always answers 200; each dependency reports its own state.
func (h *healthHandler) get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	c.JSON(http.StatusOK, healthResult{
		API:       running{Running: true},
		TriviaAPI: probe(ctx, h.trivia),
		Redis:     probe(ctx, h.redis),
	})
}
