package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/payments"
	"github.com/culturekart/marketplace-backend/internal/service"
	"github.com/culturekart/marketplace-backend/internal/validation"
)

type PaymentHandler struct {
	processor *payments.Client
	escrow    *service.EscrowService
}

func NewPaymentHandler(processor *payments.Client, escrow *service.EscrowService) *PaymentHandler {
	return &PaymentHandler{processor: processor, escrow: escrow}
}

type createIntentRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
}

// CreateIntent handles POST /payments/create-intent. The frontend confirms the
// card against the returned clientSecret before calling POST /orders.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req createIntentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateAmount(req.Amount); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	intent, err := h.processor.CreateIntent(c.Request.Context(), req.Amount, currency, map[string]string{
		"buyerId": userID.String(),
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, gin.H{
		"transactionId": intent.ID,
		"clientSecret":  intent.ClientSecret,
		"status":        intent.Status,
	})
}

// Balance handles GET /payments/balance (artisan).
func (h *PaymentHandler) Balance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	balance, err := h.escrow.Balance(c.Request.Context(), userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, balance)
}

// Transactions handles GET /payments/transactions (artisan ledger).
func (h *PaymentHandler) Transactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	transactions, err := h.escrow.Transactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, transactions)
}
