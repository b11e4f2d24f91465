package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/admin-console/internal/dto"
	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/middleware"
	"github.com/noah-isme/admin-console/internal/service"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/export"
	"github.com/noah-isme/admin-console/pkg/response"
)

const streamHeartbeat = 15 * time.Second

type screenService interface {
	Dispatch(ctx context.Context, sessionID, screen string, intent service.Intent) (service.Outcome, error)
	Watch(ctx context.Context, sessionID, screen string) (<-chan listsync.Event, func(), error)
	Dataset(sessionID, screen string) (export.Dataset, string, error)
}

type exportRenderer interface {
	Render(format service.ExportFormat, screen, title string, dataset export.Dataset) (*service.ExportFile, error)
}

type screenLister interface {
	Names() []string
}

// ScreenHandler forwards list screen intents to the session service.
type ScreenHandler struct {
	service   screenService
	exporter  exportRenderer
	catalog   screenLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScreenHandler constructs the handler.
func NewScreenHandler(service screenService, exporter exportRenderer, catalog screenLister, validate *validator.Validate, logger *zap.Logger) *ScreenHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenHandler{service: service, exporter: exporter, catalog: catalog, validator: validate, logger: logger}
}

// List godoc
// @Summary List available screens
// @Tags Screens
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /console/screens [get]
func (h *ScreenHandler) List(c *gin.Context) {
	if h.catalog == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.Names(), nil)
}

// Snapshot godoc
// @Summary Current state of a screen
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen} [get]
func (h *ScreenHandler) Snapshot(c *gin.Context) {
	h.dispatch(c, service.Intent{})
}

// Mount godoc
// @Summary Mount a screen and fetch its first page
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/mount [post]
func (h *ScreenHandler) Mount(c *gin.Context) {
	h.dispatch(c, service.Intent{Kind: service.IntentMount})
}

// ApplyStatus godoc
// @Summary Apply a status filter
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.StatusFilterRequest true "Status filter"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/filters/status [post]
func (h *ScreenHandler) ApplyStatus(c *gin.Context) {
	var req dto.StatusFilterRequest
	if !h.bind(c, &req) {
		return
	}
	h.dispatch(c, service.Intent{Kind: service.IntentStatus, Status: strings.TrimSpace(req.Status)})
}

// ApplyRole godoc
// @Summary Apply a role filter
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.RoleFilterRequest true "Role filter"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/filters/role [post]
func (h *ScreenHandler) ApplyRole(c *gin.Context) {
	var req dto.RoleFilterRequest
	if !h.bind(c, &req) {
		return
	}
	h.dispatch(c, service.Intent{Kind: service.IntentRole, Role: strings.TrimSpace(req.Role)})
}

// ApplyDateRange godoc
// @Summary Apply a date range preset or custom range
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.DateRangeFilterRequest true "Date range"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/filters/date-range [post]
func (h *ScreenHandler) ApplyDateRange(c *gin.Context) {
	var req dto.DateRangeFilterRequest
	if !h.bind(c, &req) {
		return
	}
	h.dispatch(c, service.Intent{Kind: service.IntentDateRange, Preset: listsync.DatePreset(req.Preset), Start: req.Start, End: req.End})
}

// Search godoc
// @Summary Apply a search term immediately
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.SearchRequest true "Search term"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/search [post]
func (h *ScreenHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if !h.bind(c, &req) {
		return
	}
	h.dispatch(c, service.Intent{Kind: service.IntentSearch, Term: req.Term})
}

// SearchInput godoc
// @Summary Record a search keystroke
// @Description The term is applied once input has been quiet for the debounce interval, or at once when submit is set.
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.SearchInputRequest true "Keystroke"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/search/input [post]
func (h *ScreenHandler) SearchInput(c *gin.Context) {
	var req dto.SearchInputRequest
	if !h.bind(c, &req) {
		return
	}
	h.dispatch(c, service.Intent{Kind: service.IntentSearchInput, Term: req.Term, Submit: req.Submit})
}

// ClearFilters godoc
// @Summary Clear every filter
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/filters [delete]
func (h *ScreenHandler) ClearFilters(c *gin.Context) {
	h.dispatch(c, service.Intent{Kind: service.IntentClear})
}

// LoadMore godoc
// @Summary Append the next page
// @Tags Screens
// @Produce json
// @Param screen path string true "Screen name"
// @Success 200 {object} response.Envelope{data=dto.IntentResponse}
// @Router /console/screens/{screen}/more [post]
func (h *ScreenHandler) LoadMore(c *gin.Context) {
	h.dispatch(c, service.Intent{Kind: service.IntentLoadMore})
}

// Sentinel godoc
// @Summary Report sentinel visibility
// @Tags Screens
// @Accept json
// @Produce json
// @Param screen path string true "Screen name"
// @Param payload body dto.SentinelRequest true "Sentinel report"
// @Success 200 {object} response.Envelope{data=dto.SentinelResponse}
// @Router /console/screens/{screen}/sentinel [post]
func (h *ScreenHandler) Sentinel(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	var req dto.SentinelRequest
	if !h.bind(c, &req) {
		return
	}
	outcome, err := h.service.Dispatch(c.Request.Context(), claims.SessionID, c.Param("screen"), service.Intent{
		Kind:     service.IntentSentinel,
		Sentinel: req.Sentinel,
		Ratio:    req.Ratio,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "generation", outcome.State.Generation)
	if outcome.Notification != nil {
		middleware.SetMeta(c, "notification", outcome.Notification)
	}
	response.JSON(c, http.StatusOK, dto.SentinelResponse{Triggered: outcome.Triggered, State: outcome.State}, nil, middleware.ExtractMeta(c))
}

// Events godoc
// @Summary Stream screen state and notifications
// @Description Server-sent events named "state" and "notification". EventSource clients pass the session token as a query parameter.
// @Tags Screens
// @Produce text/event-stream
// @Param screen path string true "Screen name"
// @Param token query string false "Session token"
// @Router /console/screens/{screen}/events [get]
func (h *ScreenHandler) Events(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	screen := c.Param("screen")
	events, stop, err := h.service.Watch(ctx, claims.SessionID, screen)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stop()

	initial, err := h.service.Dispatch(ctx, claims.SessionID, screen, service.Intent{})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("X-Accel-Buffering", "no")
	c.Render(-1, stateEvent(initial.State))
	lastSeq := initial.State.Seq

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.Render(-1, sse.Event{Event: "ping", Data: time.Now().UTC().Format(time.RFC3339)})
			return true
		case event, open := <-events:
			if !open {
				return false
			}
			switch {
			case event.State != nil:
				// the initial snapshot may already include this commit
				if event.State.Seq != 0 && event.State.Seq <= lastSeq {
					return true
				}
				lastSeq = event.State.Seq
				c.Render(-1, stateEvent(*event.State))
			case event.Notification != nil:
				c.Render(-1, sse.Event{Event: "notification", Data: event.Notification})
			}
			return true
		}
	})
	h.logger.Debug("screen stream closed", zap.String("screen", screen), zap.String("session_id", claims.SessionID))
}

// Export godoc
// @Summary Download the displayed rows
// @Tags Screens
// @Produce octet-stream
// @Param screen path string true "Screen name"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /console/screens/{screen}/export [get]
func (h *ScreenHandler) Export(c *gin.Context) {
	if h.service == nil || h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	screen := c.Param("screen")
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))

	dataset, title, err := h.service.Dataset(claims.SessionID, screen)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Render(format, screen, title, dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func (h *ScreenHandler) bind(c *gin.Context, dst interface{}) bool {
	if !bindJSON(c, dst) {
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.Error(c, appErrors.From(appErrors.ErrValidation, err, err.Error()))
		return false
	}
	return true
}

func (h *ScreenHandler) dispatch(c *gin.Context, intent service.Intent) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := requireSession(c)
	if !ok {
		return
	}
	outcome, err := h.service.Dispatch(c.Request.Context(), claims.SessionID, c.Param("screen"), intent)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "generation", outcome.State.Generation)
	response.JSON(c, http.StatusOK, dto.IntentResponse{State: outcome.State, Notification: outcome.Notification}, nil, middleware.ExtractMeta(c))
}

func stateEvent(state listsync.State) sse.Event {
	return sse.Event{Event: "state", Id: strconv.FormatUint(state.Seq, 10), Data: state}
}
