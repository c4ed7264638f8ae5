package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/culturekart/marketplace-backend/internal/http/handlers/common"
	"github.com/culturekart/marketplace-backend/internal/models"
	"github.com/culturekart/marketplace-backend/internal/service"
)

type ReviewHandler struct {
	catalog *service.CatalogService
}

func NewReviewHandler(catalog *service.CatalogService) *ReviewHandler {
	return &ReviewHandler{catalog: catalog}
}

type createReviewRequest struct {
	OrderID uuid.UUID `json:"orderId" binding:"required"`
	Rating  int       `json:"rating" binding:"required"`
	Comment *string   `json:"comment"`
}

// Create handles POST /products/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req createReviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	review, err := h.catalog.CreateReview(c.Request.Context(), userID, &models.Review{
		ProductID: productID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, review)
}

// List handles GET /products/:id/reviews.
func (h *ReviewHandler) List(c *gin.Context) {
	productID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	limit, offset := common.GetPagination(c)

	reviews, err := h.catalog.ListReviews(c.Request.Context(), productID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, reviews)
}
