package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate_backend/internal/services"
	"paygate_backend/pkg/apperrors"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.GET("", h.GetPlans)
		plans.GET("/:planId", h.GetPlan)
	}
}

func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.planService.ListPlans(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID := c.Param("planId")

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		apperrors.HandleError(c, apperrors.ErrNotFound(err))
		return
	}

	c.JSON(http.StatusOK, plan)
}
