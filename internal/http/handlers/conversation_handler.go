package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
}

func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type startConversationRequest struct {
	ArtisanID uuid.UUID  `json:"artisanId" binding:"required"`
	OrderID   *uuid.UUID `json:"orderId"`
}

// Start handles POST /conversations.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req startConversationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conv, err := h.conversations.Start(c.Request.Context(), userID, req.ArtisanID, req.OrderID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, conv)
}

// List handles GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	conversations, err := h.conversations.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, conversations)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send handles POST /conversations/:id/messages.
func (h *ConversationHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req sendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.conversations.Send(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, msg)
}

// Messages handles GET /conversations/:id/messages?after=RFC3339. Polling
// clients pass the timestamp of the newest message they have.
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			common.RespondBadRequest(c, "after must be an RFC3339 timestamp")
			return
		}
		after = &parsed
	}
	limit := common.ParseIntQuery(c, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	messages, err := h.conversations.Messages(c.Request.Context(), userID, id, after, limit)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, messages)
}
