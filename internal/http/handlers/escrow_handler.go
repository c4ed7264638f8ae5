package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/metrics"
	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/service"
)

// EscrowHandler is the admin surface for escrow management.
type EscrowHandler struct {
	escrow *service.EscrowService
}

func NewEscrowHandler(escrow *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrow: escrow}
}

// List handles GET /admin/escrow?status=pending. Without a status filter
// it lists every entry.
func (h *EscrowHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	h.respondList(c, c.Query("status"), limit, offset)
}

// ListPending handles GET /admin/escrow/pending?page&limit.
func (h *EscrowHandler) ListPending(c *gin.Context) {
	limit, offset := common.GetPagePagination(c)
	h.respondList(c, models.EscrowStatusPending, limit, offset)
}

// ListReleased handles GET /admin/escrow/released?page&limit.
func (h *EscrowHandler) ListReleased(c *gin.Context) {
	limit, offset := common.GetPagePagination(c)
	h.respondList(c, models.EscrowStatusReleased, limit, offset)
}

func (h *EscrowHandler) respondList(c *gin.Context, status string, limit, offset int) {
	entries, total, err := h.escrow.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"entries": entries,
		"pagination": models.Pagination{
			Page:  offset/limit + 1,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// Stats handles GET /admin/escrow/stats.
func (h *EscrowHandler) Stats(c *gin.Context) {
	stats, err := h.escrow.Stats(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, stats)
}

// GetByOrder handles GET /admin/escrow/:orderId.
func (h *EscrowHandler) GetByOrder(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "orderId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.escrow.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, entry)
}

type releaseRequest struct {
	Notes *string `json:"notes"`
}

// Release handles POST /admin/escrow/:orderId/release.
func (h *EscrowHandler) Release(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "orderId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req releaseRequest
	if c.Request.ContentLength > 0 {
		if err := common.BindAndValidate(c, &req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	entry, err := h.escrow.Release(c.Request.Context(), orderID, adminID, req.Notes)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	metrics.EscrowReleased.Inc()
	metrics.EscrowReleasedAmount.Add(entry.Amount)
	common.RespondJSON(c, http.StatusOK, entry)
}

type bulkReleaseRequest struct {
	OrderIDs []uuid.UUID `json:"orderIds" binding:"required,min=1"`
	Notes    *string     `json:"notes"`
}

// BulkRelease handles POST /admin/escrow/bulk-release. Partial failure is
// a normal outcome: the response lists successful and failed order ids.
func (h *EscrowHandler) BulkRelease(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req bulkReleaseRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.escrow.BulkRelease(c.Request.Context(), req.OrderIDs, adminID, req.Notes)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	for range result.Successful {
		metrics.EscrowReleased.Inc()
	}
	common.RespondJSON(c, http.StatusOK, result)
}
