package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type PlanCompetencyHandler struct {
	log       *logger.Logger
	planComps services.PlanCompetencyService
}

func NewPlanCompetencyHandler(log *logger.Logger, planComps services.PlanCompetencyService) *PlanCompetencyHandler {
	return &PlanCompetencyHandler{log: log.With("handler", "PlanCompetencyHandler"), planComps: planComps}
}

// GET /api/learning-plan-competencies?learning_plan=<id>
func (h *PlanCompetencyHandler) List(c *gin.Context) {
	planID, ok := queryID(c, "learning_plan")
	if !ok {
		return
	}
	rows, err := h.planComps.List(c.Request.Context(), planID)
	if err != nil {
		respondErr(c, h.log, "list plan competencies", err)
		return
	}
	response.RespondOK(c, mapViews(rows, newPlanCompetencyView))
}

// POST /api/learning-plan-competencies
// body: { "learning_plan": "<id>", "competency_external_reference": "...", "priority": "High" }
func (h *PlanCompetencyHandler) Create(c *gin.Context) {
	var req struct {
		LearningPlan                uuid.UUID `json:"learning_plan"`
		CompetencyExternalReference string    `json:"competency_external_reference"`
		Priority                    string    `json:"priority"`
	}
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.planComps.Create(c.Request.Context(), services.PlanCompetencyInput{
		LearningPlanID:      req.LearningPlan,
		CompetencyReference: req.CompetencyExternalReference,
		Priority:            req.Priority,
	})
	if err != nil {
		respondErr(c, h.log, "create plan competency", err)
		return
	}
	response.RespondCreated(c, newPlanCompetencyView(row))
}

// GET /api/learning-plan-competencies/:id
func (h *PlanCompetencyHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := h.planComps.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "get plan competency", err)
		return
	}
	response.RespondOK(c, newPlanCompetencyView(row))
}

// PATCH /api/learning-plan-competencies/:id
func (h *PlanCompetencyHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := bindPatch(c)
	if !ok {
		return
	}
	var patch services.PlanCompetencyPatch
	if err := firstErr(
		patchField(body, "learning_plan", &patch.LearningPlanID),
		patchField(body, "competency_external_reference", &patch.CompetencyReference),
		patchField(body, "priority", &patch.Priority),
	); err != nil {
		badRequest(c, err.Error())
		return
	}
	row, err := h.planComps.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, h.log, "update plan competency", err)
		return
	}
	response.RespondOK(c, newPlanCompetencyView(row))
}

// DELETE /api/learning-plan-competencies/:id
func (h *PlanCompetencyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.planComps.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, h.log, "delete plan competency", err)
		return
	}
	response.RespondNoContent(c)
}
