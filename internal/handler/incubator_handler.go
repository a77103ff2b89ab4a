package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/service"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/response"
)

// IncubatorHandler exposes the incubation centre's review endpoints.
type IncubatorHandler struct {
	incubator *service.IncubatorService
}

// NewIncubatorHandler constructs IncubatorHandler.
func NewIncubatorHandler(incubator *service.IncubatorService) *IncubatorHandler {
	return &IncubatorHandler{incubator: incubator}
}

// ReviewQueue godoc
// @Summary Forwarded ideas awaiting incubation review
// @Tags Incubation
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /incubator/ideas/endorsed [get]
func (h *IncubatorHandler) ReviewQueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, pagination, err := h.incubator.ReviewQueue(c.Request.Context(), page, size, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Incubate or reject a forwarded idea
// @Tags Incubation
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body service.ReviewRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /incubator/ideas/{id}/review [put]
func (h *IncubatorHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	detail, err := h.incubator.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// PreIncubatees godoc
// @Summary List admitted ideas for the caller's incubator
// @Tags Incubation
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /incubator/pre-incubatees [get]
func (h *IncubatorHandler) PreIncubatees(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.incubator.PreIncubatees(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
