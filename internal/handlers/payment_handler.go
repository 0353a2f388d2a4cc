package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"paygate_backend/internal/middleware"
	"paygate_backend/internal/models"
	"paygate_backend/internal/services"
	"paygate_backend/pkg/apperrors"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.GET("/my", h.GetMyPayments)
		payments.GET("/history", middleware.RoleMiddleware(models.UserRoleAdmin), h.GetHistory)
	}
}

// GetHistory returns the full payment audit log (admin only).
func (h *PaymentHandler) GetHistory(c *gin.Context) {
	limit, offset := pagination(c)

	entries, total, err := h.paymentService.History(c.Request.Context(), limit, offset)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": entries,
		"total":    total,
	})
}

// GetMyPayments returns the authenticated user's payment history.
func (h *PaymentHandler) GetMyPayments(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Missing user identity"))
		return
	}

	limit, offset := pagination(c)

	entries, err := h.paymentService.UserHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": entries,
		"total":    len(entries),
	})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
