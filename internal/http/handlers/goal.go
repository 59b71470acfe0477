package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type GoalHandler struct {
	log   *logger.Logger
	goals services.GoalService
}

func NewGoalHandler(log *logger.Logger, goals services.GoalService) *GoalHandler {
	return &GoalHandler{log: log.With("handler", "GoalHandler"), goals: goals}
}

// GET /api/learning-plan-goals?plan_competency=<id>
func (h *GoalHandler) List(c *gin.Context) {
	pcID, ok := queryID(c, "plan_competency")
	if !ok {
		return
	}
	goals, err := h.goals.List(c.Request.Context(), pcID)
	if err != nil {
		respondErr(c, h.log, "list goals", err)
		return
	}
	response.RespondOK(c, mapViews(goals, newGoalView))
}

// POST /api/learning-plan-goals
// The goal is created in ELRR in the same request; a sync failure leaves no
// local row behind.
func (h *GoalHandler) Create(c *gin.Context) {
	var req struct {
		PlanCompetency        uuid.UUID `json:"plan_competency"`
		GoalName              string    `json:"goal_name"`
		Timeline              *int      `json:"timeline"`
		ResourcesSupport      []string  `json:"resources_support"`
		Obstacles             []string  `json:"obstacles"`
		ResourcesSupportOther string    `json:"resources_support_other"`
		ObstaclesOther        string    `json:"obstacles_other"`
	}
	if !bindJSON(c, &req) {
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), services.GoalInput{
		PlanCompetencyID:      req.PlanCompetency,
		GoalName:              req.GoalName,
		Timeline:              req.Timeline,
		ResourcesSupport:      req.ResourcesSupport,
		Obstacles:             req.Obstacles,
		ResourcesSupportOther: req.ResourcesSupportOther,
		ObstaclesOther:        req.ObstaclesOther,
	})
	if err != nil {
		respondErr(c, h.log, "create goal", err)
		return
	}
	response.RespondCreated(c, newGoalView(goal))
}

// GET /api/learning-plan-goals/:id
func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	goal, err := h.goals.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "get goal", err)
		return
	}
	response.RespondOK(c, newGoalView(goal))
}

// PATCH /api/learning-plan-goals/:id
func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := bindPatch(c)
	if !ok {
		return
	}
	var patch services.GoalPatch
	if err := firstErr(
		patchField(body, "plan_competency", &patch.PlanCompetencyID),
		patchField(body, "goal_name", &patch.GoalName),
		patchField(body, "timeline", &patch.Timeline),
		patchField(body, "resources_support", &patch.ResourcesSupport),
		patchField(body, "obstacles", &patch.Obstacles),
		patchField(body, "resources_support_other", &patch.ResourcesSupportOther),
		patchField(body, "obstacles_other", &patch.ObstaclesOther),
	); err != nil {
		badRequest(c, err.Error())
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, h.log, "update goal", err)
		return
	}
	response.RespondOK(c, newGoalView(goal))
}

// DELETE /api/learning-plan-goals/:id
func (h *GoalHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.goals.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, h.log, "delete goal", err)
		return
	}
	response.RespondNoContent(c)
}
