package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type GoalKsaHandler struct {
	log  *logger.Logger
	ksas services.GoalKsaService
}

func NewGoalKsaHandler(log *logger.Logger, ksas services.GoalKsaService) *GoalKsaHandler {
	return &GoalKsaHandler{log: log.With("handler", "GoalKsaHandler"), ksas: ksas}
}

// GET /api/learning-plan-goal-ksas?plan_goal=<id>
func (h *GoalKsaHandler) List(c *gin.Context) {
	goalID, ok := queryID(c, "plan_goal")
	if !ok {
		return
	}
	rows, err := h.ksas.List(c.Request.Context(), goalID)
	if err != nil {
		respondErr(c, h.log, "list goal ksas", err)
		return
	}
	response.RespondOK(c, mapViews(rows, newGoalKsaView))
}

// POST /api/learning-plan-goal-ksas
// body: { "plan_goal": "<id>", "ksa_external_reference": "...",
//         "current_proficiency": "...", "target_proficiency": "..." }
func (h *GoalKsaHandler) Create(c *gin.Context) {
	var req struct {
		PlanGoal             uuid.UUID `json:"plan_goal"`
		KsaExternalReference string    `json:"ksa_external_reference"`
		CurrentProficiency   string    `json:"current_proficiency"`
		TargetProficiency    string    `json:"target_proficiency"`
	}
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.ksas.Attach(c.Request.Context(), services.GoalKsaInput{
		PlanGoalID:         req.PlanGoal,
		KsaReference:       req.KsaExternalReference,
		CurrentProficiency: req.CurrentProficiency,
		TargetProficiency:  req.TargetProficiency,
	})
	if err != nil {
		respondErr(c, h.log, "attach ksa", err)
		return
	}
	response.RespondCreated(c, newGoalKsaView(row))
}

// GET /api/learning-plan-goal-ksas/:id
func (h *GoalKsaHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := h.ksas.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "get goal ksa", err)
		return
	}
	response.RespondOK(c, newGoalKsaView(row))
}

// PATCH /api/learning-plan-goal-ksas/:id
// A new ksa_external_reference replaces the KSA in the remote goal too.
func (h *GoalKsaHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := bindPatch(c)
	if !ok {
		return
	}
	var patch services.GoalKsaPatch
	if err := firstErr(
		patchField(body, "plan_goal", &patch.PlanGoalID),
		patchField(body, "ksa_external_reference", &patch.KsaReference),
		patchField(body, "current_proficiency", &patch.CurrentProficiency),
		patchField(body, "target_proficiency", &patch.TargetProficiency),
	); err != nil {
		badRequest(c, err.Error())
		return
	}
	row, err := h.ksas.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, h.log, "update goal ksa", err)
		return
	}
	response.RespondOK(c, newGoalKsaView(row))
}

// DELETE /api/learning-plan-goal-ksas/:id
func (h *GoalKsaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.ksas.Detach(c.Request.Context(), id); err != nil {
		respondErr(c, h.log, "detach ksa", err)
		return
	}
	response.RespondNoContent(c)
}
