package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/service"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
	"github.com/deshmukhatharva11/innovation-hub-sub003/pkg/response"
)

// ChatHandler exposes mentor chat endpoints.
type ChatHandler struct {
	chats *service.ChatService
}

// NewChatHandler constructs ChatHandler.
func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// List godoc
// @Summary List the caller's chats
// @Tags Chats
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chats [get]
func (h *ChatHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	chats, err := h.chats.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chats, nil)
}

// Messages godoc
// @Summary List messages in a chat
// @Description Returns the most recent messages and clears the caller's unread counter
// @Tags Chats
// @Produce json
// @Param id path string true "Chat ID"
// @Param limit query int false "Maximum messages" default(50)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chats/{id}/messages [get]
func (h *ChatHandler) Messages(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.chats.Messages(c.Request.Context(), c.Param("id"), limit, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Send godoc
// @Summary Send a message into a chat
// @Tags Chats
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param payload body service.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chats/{id}/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	msg, err := h.chats.Send(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Archive godoc
// @Summary Archive a chat
// @Tags Chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /chats/{id}/archive [put]
func (h *ChatHandler) Archive(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.chats.Archive(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
