package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/service"
)

type OrderHandler struct {
	orders       *service.OrderService
	verification *service.VerificationService
}

func NewOrderHandler(orders *service.OrderService, verification *service.VerificationService) *OrderHandler {
	return &OrderHandler{orders: orders, verification: verification}
}

// Create handles POST /orders. Replays of the same payment transaction
// return the existing order with 200 instead of 201.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req service.CreateOrderInput
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, created, err := h.orders.Create(c.Request.Context(), userID, &req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.RespondJSON(c, status, order)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Get(c.Request.Context(), userID, role, id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, order)
}

// List handles GET /orders. Buyers see their purchases, artisans their
// sales.
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)
	limit, offset := common.GetPagination(c)

	var orders []models.Order
	if role == models.RoleArtisan {
		orders, err = h.orders.ListForArtisan(c.Request.Context(), userID, limit, offset)
	} else {
		orders, err = h.orders.ListForBuyer(c.Request.Context(), userID, limit, offset)
	}
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req updateStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), userID, role, id, req.Status)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, order)
}

type shipRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"trackingNumber" binding:"required"`
}

// Ship handles POST /orders/:id/ship. The response carries the minted
// verification codes so the artisan can print them.
func (h *OrderHandler) Ship(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req shipRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, codes, err := h.orders.Ship(c.Request.Context(), userID, role, id, req.Carrier, req.TrackingNumber)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{"order": order, "verificationCodes": codes})
}

// ListCodes handles GET /orders/:id/codes, for reprinting.
func (h *OrderHandler) ListCodes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Get(c.Request.Context(), userID, role, id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	codes, err := h.verification.ListForOrder(c.Request.Context(), userID, role, order)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, codes)
}
