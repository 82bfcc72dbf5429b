package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"circlerate/internal/domain"
	"circlerate/internal/repository"
	"circlerate/internal/service"
)

// RatingHandler expone la sesión anónima de calificación y las consultas
// de reputación.
type RatingHandler struct {
	logger     *zap.Logger
	traits     repository.TraitRepository
	sessions   *service.SessionService
	reputation *service.ReputationService
}

func NewRatingHandler(
	logger *zap.Logger,
	traits repository.TraitRepository,
	sessions *service.SessionService,
	reputation *service.ReputationService,
) *RatingHandler {
	return &RatingHandler{
		logger:     logger,
		traits:     traits,
		sessions:   sessions,
		reputation: reputation,
	}
}

// ListTraits maneja GET /ratings/traits.
func (h *RatingHandler) ListTraits(c *gin.Context) {
	traits, err := h.traits.ListOrdered(c.Request.Context())
	if err != nil {
		h.logger.Error("list traits failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load traits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"traits": traits})
}

// ValidateToken maneja GET /ratings/validate-token/:token.
func (h *RatingHandler) ValidateToken(c *gin.Context) {
	result, err := h.sessions.ValidateToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
			return
		}
		h.logger.Error("validate token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"session_id": result.SessionID,
		"user":       result.Ratee,
		"circle_id":  result.CircleID,
		"trait":      result.FirstTrait,
		"completed":  result.Completed,
	})
}

// SubmitRating maneja POST /ratings/submit.
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Value     *int   `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.sessions.Submit(c.Request.Context(), req.SessionID, *req.Value)
	if err != nil {
		h.stepError(c, err, "submit rating failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": result.NextTrait, "completed": result.Completed})
}

// SkipTrait maneja POST /ratings/skip.
func (h *RatingHandler) SkipTrait(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid skip payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.sessions.Skip(c.Request.Context(), req.SessionID)
	if err != nil {
		h.stepError(c, err, "skip trait failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": result.NextTrait, "completed": result.Completed})
}

// TraitDetails maneja GET /ratings/trait-details/:userId/:traitId.
func (h *RatingHandler) TraitDetails(c *gin.Context) {
	trait, ratee, err := h.sessions.TraitDetails(c.Request.Context(), c.Param("userId"), c.Param("traitId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": trait, "user": ratee})
}

// ReputationSummary maneja GET /ratings/users/:id. Solo el propio
// usuario puede ver su resumen.
func (h *RatingHandler) ReputationSummary(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	rateeID := c.Param("id")
	if rateeID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your reputation"})
		return
	}

	summary, err := h.reputation.Summary(c.Request.Context(), rateeID)
	if err != nil {
		h.logger.Error("reputation summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load reputation"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *RatingHandler) stepError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRatingValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rating value"})
	case errors.Is(err, domain.ErrInvalidSessionState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid session state"})
	case errors.Is(err, domain.ErrUnknownRatee), errors.Is(err, domain.ErrUnknownCircle):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
	}
}
