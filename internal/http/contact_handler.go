package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"circlerate/internal/domain"
	"circlerate/internal/repository"
	"circlerate/internal/service"
)

// ContactHandler mantiene dependencias para círculos, contactos e
// invitaciones.
type ContactHandler struct {
	logger      *zap.Logger
	circles     repository.CircleRepository
	contacts    repository.ContactRepository
	users       repository.UserRepository
	invitations *service.InvitationService
}

func NewContactHandler(
	logger *zap.Logger,
	circles repository.CircleRepository,
	contacts repository.ContactRepository,
	users repository.UserRepository,
	invitations *service.InvitationService,
) *ContactHandler {
	return &ContactHandler{
		logger:      logger,
		circles:     circles,
		contacts:    contacts,
		users:       users,
		invitations: invitations,
	}
}

// ListCircles maneja GET /contacts/circles.
func (h *ContactHandler) ListCircles(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	circles, err := h.circles.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list circles failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list circles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"circles": circles})
}

// CreateCircle maneja POST /contacts/circles.
func (h *ContactHandler) CreateCircle(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create circle payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	circle := domain.Circle{
		ID:        uuid.NewString(),
		OwnerID:   claims.UserID,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.circles.Create(c.Request.Context(), circle); err != nil {
		h.logger.Error("create circle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create circle"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"circle": circle})
}

// UpdateCircle maneja PUT /contacts/circles/:id.
func (h *ContactHandler) UpdateCircle(c *gin.Context) {
	if !h.ownsCircle(c, c.Param("id")) {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update circle payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.circles.Update(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		if errors.Is(err, domain.ErrCircleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "circle not found"})
			return
		}
		h.logger.Error("update circle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update circle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteCircle maneja DELETE /contacts/circles/:id. Borra también los
// contactos del círculo; los ratings históricos quedan intactos.
func (h *ContactHandler) DeleteCircle(c *gin.Context) {
	if !h.ownsCircle(c, c.Param("id")) {
		return
	}

	if err := h.circles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete circle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete circle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListContacts maneja GET /contacts.
func (h *ContactHandler) ListContacts(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	contacts, err := h.contacts.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list contacts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list contacts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// CreateContact maneja POST /contacts.
func (h *ContactHandler) CreateContact(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		Email       string `json:"email"`
		CircleID    string `json:"circle_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create contact payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !h.ownsCircle(c, req.CircleID) {
		return
	}

	contact := domain.Contact{
		ID:          uuid.NewString(),
		OwnerID:     claims.UserID,
		CircleID:    req.CircleID,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.contacts.Create(c.Request.Context(), contact); err != nil {
		h.logger.Error("create contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create contact"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

// UpdateContact maneja PUT /contacts/:id.
func (h *ContactHandler) UpdateContact(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	existing, err := h.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		h.logger.Error("load contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update contact"})
		return
	}
	if existing.OwnerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your contact"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
		Email       string `json:"email"`
		CircleID    string `json:"circle_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update contact payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// Mover el contacto exige ser dueño del círculo destino.
	if !h.ownsCircle(c, req.CircleID) {
		return
	}

	existing.Name = req.Name
	existing.PhoneNumber = req.PhoneNumber
	existing.Email = req.Email
	existing.CircleID = req.CircleID
	if err := h.contacts.Update(c.Request.Context(), existing); err != nil {
		h.logger.Error("update contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update contact"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": existing})
}

// DeleteContact maneja DELETE /contacts/:id. Borrar un contacto no
// retira sus ratings pasados.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	existing, err := h.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		h.logger.Error("load contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete contact"})
		return
	}
	if existing.OwnerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your contact"})
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), existing.ID); err != nil {
		h.logger.Error("delete contact failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete contact"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ImportContacts maneja POST /contacts/import.
func (h *ContactHandler) ImportContacts(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Contacts []struct {
			Name        string `json:"name" binding:"required"`
			PhoneNumber string `json:"phone_number" binding:"required"`
			Email       string `json:"email"`
			CircleID    string `json:"circle_id" binding:"required"`
		} `json:"contacts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid import payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	imported := 0
	for _, entry := range req.Contacts {
		if !h.circleBelongsTo(c.Request.Context(), entry.CircleID, claims.UserID) {
			h.logger.Warn("import into foreign circle rejected",
				zap.String("circle_id", entry.CircleID),
				zap.String("user_id", claims.UserID),
			)
			continue
		}
		contact := domain.Contact{
			ID:          uuid.NewString(),
			OwnerID:     claims.UserID,
			CircleID:    entry.CircleID,
			Name:        entry.Name,
			PhoneNumber: entry.PhoneNumber,
			Email:       entry.Email,
			CreatedAt:   time.Now().UTC(),
		}
		if err := h.contacts.Create(c.Request.Context(), contact); err != nil {
			h.logger.Warn("import contact failed", zap.Error(err), zap.String("name", entry.Name))
			continue
		}
		imported++
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// SendInvitations maneja POST /contacts/send-invitations.
func (h *ContactHandler) SendInvitations(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		ContactIDs []string `json:"contact_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid invitations payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	owner, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("load owner failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send invitations"})
		return
	}

	report, err := h.invitations.SendInvitations(c.Request.Context(), owner, req.ContactIDs)
	if err != nil {
		h.logger.Error("send invitations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send invitations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": report.Sent, "skipped": report.Skipped})
}

// ownsCircle verifica que el círculo exista y pertenezca al usuario
// autenticado; responde por su cuenta cuando no.
func (h *ContactHandler) ownsCircle(c *gin.Context, circleID string) bool {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return false
	}

	circle, err := h.circles.GetByID(c.Request.Context(), circleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "circle not found"})
			return false
		}
		h.logger.Error("load circle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load circle"})
		return false
	}
	if circle.OwnerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your circle"})
		return false
	}
	return true
}

// circleBelongsTo es la variante silenciosa de ownsCircle para flujos
// por lote: no escribe respuesta, solo informa.
func (h *ContactHandler) circleBelongsTo(ctx context.Context, circleID, userID string) bool {
	circle, err := h.circles.GetByID(ctx, circleID)
	if err != nil {
		return false
	}
	return circle.OwnerID == userID
}
