package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/service"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/response"
)

// IdeaHandler exposes idea endpoints.
type IdeaHandler struct {
	ideas    *service.IdeaService
	workflow *service.WorkflowService
	reports  *service.ReportService
}

// NewIdeaHandler constructs IdeaHandler.
func NewIdeaHandler(ideas *service.IdeaService, workflow *service.WorkflowService, reports *service.ReportService) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, workflow: workflow, reports: reports}
}

// List godoc
// @Summary List ideas visible to the caller
// @Tags Ideas
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param search query string false "Search title and description"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas [get]
func (h *IdeaHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.IdeaFilter
	filter.Status = models.IdeaStatus(c.Query("status"))
	filter.Category = c.Query("category")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	ideas, pagination, err := h.ideas.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ideas, pagination)
}

// Get godoc
// @Summary Get idea detail with available transitions
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id} [get]
func (h *IdeaHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.ideas.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Register a new idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param payload body service.CreateIdeaRequest true "Idea payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas [post]
func (h *IdeaHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid idea payload"))
		return
	}

	idea, err := h.ideas.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, idea)
}

// Update godoc
// @Summary Edit an idea's content
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body service.UpdateIdeaRequest true "Idea payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id} [put]
func (h *IdeaHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid idea payload"))
		return
	}

	detail, err := h.ideas.Update(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ChangeStatus godoc
// @Summary Move an idea to a new status
// @Description Applies a lifecycle transition subject to the transition table and the caller's role and scope
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body service.StatusChangeRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/status [put]
func (h *IdeaHandler) ChangeStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	detail, err := h.workflow.ChangeStatus(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// PipelineReport godoc
// @Summary Idea pipeline breakdown by status
// @Tags Reports
// @Produce json
// @Param format query string false "Export format: json, csv or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/reports/pipeline [get]
func (h *IdeaHandler) PipelineReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.reports.Pipeline(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		raw, err := h.reports.RenderCSV(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="pipeline.csv"`)
		c.Data(http.StatusOK, "text/csv", raw)
	case "pdf":
		raw, err := h.reports.RenderPDF(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="pipeline.pdf"`)
		c.Data(http.StatusOK, "application/pdf", raw)
	default:
		response.JSON(c, http.StatusOK, report, nil)
	}
}
