package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admin-console/internal/dto"
	"github.com/noah-isme/admin-console/internal/models"
	"github.com/noah-isme/admin-console/internal/service"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/logger"
	"github.com/noah-isme/admin-console/pkg/response"
)

type sessionService interface {
	Open(ctx context.Context, req dto.OpenSessionRequest, meta service.ClientMeta) (*models.SessionInfo, error)
	Close(sessionID string) error
}

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// SessionHandler opens and closes dashboard sessions.
type SessionHandler struct {
	service sessionService
	audit   auditLister
}

// NewSessionHandler constructs the handler. audit is optional.
func NewSessionHandler(service sessionService, audit auditLister) *SessionHandler {
	return &SessionHandler{service: service, audit: audit}
}

// Open godoc
// @Summary Open a console session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Operator"
// @Success 201 {object} response.Envelope{data=models.SessionInfo}
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /console/sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.OpenSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	info, err := h.service.Open(c.Request.Context(), req, service.ClientMeta{
		IP:     c.ClientIP(),
		Client: logger.Client(c.Request.UserAgent()),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, info)
}

// Close godoc
// @Summary Close the current console session
// @Tags Sessions
// @Security BearerAuth
// @Success 204
// @Router /console/sessions [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Close(claims.SessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Current godoc
// @Summary Describe the current console session
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{data=models.SessionClaims}
// @Router /console/sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// Audit godoc
// @Summary Recent intents recorded for the current session
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param screen query string false "Screen name"
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} response.Envelope{data=[]models.AuditLog}
// @Router /console/sessions/current/audit [get]
func (h *SessionHandler) Audit(c *gin.Context) {
	if h.audit == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "audit trail is disabled"))
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
		return
	}
	logs, err := h.audit.List(c.Request.Context(), models.AuditFilter{
		SessionID: claims.SessionID,
		Screen:    c.Query("screen"),
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
