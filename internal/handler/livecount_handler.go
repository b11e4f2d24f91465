package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/admin-console/internal/dto"
	appErrors "github.com/noah-isme/admin-console/pkg/errors"
	"github.com/noah-isme/admin-console/pkg/response"
)

type liveCountService interface {
	Publish(ctx context.Context, count *int) error
	Last(ctx context.Context) (*int, time.Time, error)
}

// LiveCountHandler publishes and reads the live user count.
type LiveCountHandler struct {
	service   liveCountService
	validator *validator.Validate
}

// NewLiveCountHandler constructs the handler.
func NewLiveCountHandler(service liveCountService, validate *validator.Validate) *LiveCountHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &LiveCountHandler{service: service, validator: validate}
}

// Get godoc
// @Summary Last published live user count
// @Tags LiveCount
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.LiveCountResponse}
// @Router /console/live-count [get]
func (h *LiveCountHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	count, observed, err := h.service.Last(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.From(appErrors.ErrUpstream, err, "live count unavailable"))
		return
	}
	response.JSON(c, http.StatusOK, dto.LiveCountResponse{TotalUserCount: count, ObservedAt: observed}, nil)
}

// Publish godoc
// @Summary Publish a live user count
// @Description A null totalUserCount reverts every users screen to the paged total.
// @Tags LiveCount
// @Accept json
// @Param payload body dto.LiveCountRequest true "Live count"
// @Success 202 {object} response.Envelope
// @Router /console/live-count [post]
func (h *LiveCountHandler) Publish(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.LiveCountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "totalUserCount must be a non-negative integer"))
		return
	}
	if err := h.service.Publish(c.Request.Context(), req.TotalUserCount); err != nil {
		response.Error(c, appErrors.From(appErrors.ErrUpstream, err, "failed to publish live count"))
		return
	}
	response.JSON(c, http.StatusAccepted, dto.LiveCountResponse{TotalUserCount: req.TotalUserCount}, nil)
}
