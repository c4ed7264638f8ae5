package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturekart/marketplace-backend/internal/cache"
	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/metrics"
	"github.com/culturekart/marketplace-backend/internal/service"
)

// VerificationHandler serves the public verification page endpoints. No
// authentication: anyone holding a code may check it.
type VerificationHandler struct {
	verification *service.VerificationService
	cache        *cache.Cache
}

func NewVerificationHandler(verification *service.VerificationService, cache *cache.Cache) *VerificationHandler {
	return &VerificationHandler{verification: verification, cache: cache}
}

// Verify handles GET /verification/:code.
func (h *VerificationHandler) Verify(c *gin.Context) {
	code := c.Param("code")
	fingerprint := optionalQuery(c, "deviceFingerprint")
	ip := c.ClientIP()

	if h.cache != nil {
		var cached service.VerificationResult
		if hit, err := h.cache.GetVerification(c.Request.Context(), code, &cached); err == nil && hit {
			// Served from cache, but the scan itself still counts.
			h.verification.NoteScan(c.Request.Context(), code, fingerprint, &ip)
			metrics.VerificationScans.WithLabelValues(cached.Status).Inc()
			common.RespondJSON(c, http.StatusOK, &cached)
			return
		}
	}

	result, err := h.verification.Verify(c.Request.Context(), code, fingerprint, &ip)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	metrics.VerificationScans.WithLabelValues(result.Status).Inc()

	if h.cache != nil {
		_ = h.cache.SetVerification(c.Request.Context(), code, result)
	}
	common.RespondJSON(c, http.StatusOK, result)
}

type confirmDeliveryRequest struct {
	DeviceFingerprint string `json:"deviceFingerprint" binding:"required"`
}

// ConfirmDelivery handles POST /verification/:code/confirm-delivery.
func (h *VerificationHandler) ConfirmDelivery(c *gin.Context) {
	code := c.Param("code")

	var req confirmDeliveryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	confirmation, err := h.verification.ConfirmDelivery(c.Request.Context(), code, req.DeviceFingerprint)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	metrics.DeliveriesConfirmed.Inc()

	if h.cache != nil {
		_ = h.cache.InvalidateVerification(c.Request.Context(), code)
	}
	common.RespondJSON(c, http.StatusOK, confirmation)
}

// ScanHistory handles GET /admin/verification/:code/scans.
func (h *VerificationHandler) ScanHistory(c *gin.Context) {
	code := c.Param("code")
	limit := common.ParseIntQuery(c, "limit", 50)

	events, err := h.verification.ScanHistory(c.Request.Context(), code, limit)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, events)
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
