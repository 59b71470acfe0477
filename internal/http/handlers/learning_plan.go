package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type LearningPlanHandler struct {
	log   *logger.Logger
	plans services.LearningPlanService
}

func NewLearningPlanHandler(log *logger.Logger, plans services.LearningPlanService) *LearningPlanHandler {
	return &LearningPlanHandler{log: log.With("handler", "LearningPlanHandler"), plans: plans}
}

// GET /api/learning-plans
func (h *LearningPlanHandler) List(c *gin.Context) {
	plans, err := h.plans.List(c.Request.Context())
	if err != nil {
		respondErr(c, h.log, "list learning plans", err)
		return
	}
	response.RespondOK(c, mapViews(plans, newLearningPlanView))
}

// POST /api/learning-plans
// body: { "name": "...", "timeframe": "Short-term (1-2 years)" }
func (h *LearningPlanHandler) Create(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		Timeframe string `json:"timeframe"`
	}
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.plans.Create(c.Request.Context(), services.LearningPlanInput{
		Name:      req.Name,
		Timeframe: req.Timeframe,
	})
	if err != nil {
		respondErr(c, h.log, "create learning plan", err)
		return
	}
	response.RespondCreated(c, newLearningPlanView(plan))
}

// GET /api/learning-plans/:id
func (h *LearningPlanHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	plan, err := h.plans.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "get learning plan", err)
		return
	}
	response.RespondOK(c, newLearningPlanView(plan))
}

// PATCH /api/learning-plans/:id
func (h *LearningPlanHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := bindPatch(c)
	if !ok {
		return
	}
	var patch services.LearningPlanPatch
	if err := firstErr(
		patchField(body, "name", &patch.Name),
		patchField(body, "timeframe", &patch.Timeframe),
	); err != nil {
		badRequest(c, err.Error())
		return
	}
	plan, err := h.plans.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, h.log, "update learning plan", err)
		return
	}
	response.RespondOK(c, newLearningPlanView(plan))
}

// DELETE /api/learning-plans/:id
func (h *LearningPlanHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.plans.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, h.log, "delete learning plan", err)
		return
	}
	response.RespondNoContent(c)
}
