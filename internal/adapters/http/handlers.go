package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Trivia/internal/app/orch"
	"github.com/dkeye/Trivia/internal/domain"
	"github.com/gin-gonic/gin"
)

const guestTokenTTL = 24 * time.Hour

type handlers struct {
	orch   *orch.Orchestrator
	issuer TokenIssuer
}

func token(c *gin.Context) string { return c.GetString(tokenKey) }

func sessionID(c *gin.Context) domain.SessionID {
	return domain.SessionID(strings.ToUpper(c.Param("id")))
}

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	Token  string          `json:"token"`
	Player domain.Identity `json:"player"`
}

func (h *handlers) guest(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	name, err := domain.NormalizeName(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ident, tok, err := h.issuer.IssueGuest(name, guestTokenTTL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rememberToken(c, tok)
	c.JSON(http.StatusCreated, guestResponse{Token: tok, Player: ident})
}

func (h *handlers) create(c *gin.Context) {
	snap, err := h.orch.CreateSession(c.Request.Context(), token(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *handlers) join(c *gin.Context) {
	snap, err := h.orch.JoinSession(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) rejoin(c *gin.Context) {
	snap, err := h.orch.RejoinAsHost(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) joinable(c *gin.Context) {
	ok, err := h.orch.SessionIsJoinable(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joinable": ok})
}

func (h *handlers) view(c *gin.Context) {
	snap, err := h.orch.View(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) leave(c *gin.Context) {
	if err := h.orch.LeaveSession(c.Request.Context(), token(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) updateSettings(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, domain.ErrInvalidSettings)
		return
	}
	snap, err := h.orch.UpdateSettings(c.Request.Context(), token(c), sessionID(c), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, domain.ErrInvalidStatus)
		return
	}
	snap, err := h.orch.SetPlayerStatus(c.Request.Context(), token(c), sessionID(c), req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) start(c *gin.Context) {
	snap, err := h.orch.StartRound(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) next(c *gin.Context) {
	snap, err := h.orch.AdvanceQuestion(c.Request.Context(), token(c), sessionID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type answerRequest struct {
	QuestionID domain.QuestionID `json:"questionId" binding:"required"`
	Answer     string            `json:"answer"`
}

func (h *handlers) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	if err := h.orch.SubmitAnswer(c.Request.Context(), token(c), sessionID(c), req.QuestionID, req.Answer); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
