package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adlnet/edlm-portal-backend/internal/http/response"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/logger"
	"github.com/adlnet/edlm-portal-backend/internal/services"
)

type GoalCourseHandler struct {
	log     *logger.Logger
	courses services.GoalCourseService
}

func NewGoalCourseHandler(log *logger.Logger, courses services.GoalCourseService) *GoalCourseHandler {
	return &GoalCourseHandler{log: log.With("handler", "GoalCourseHandler"), courses: courses}
}

// GET /api/learning-plan-goal-courses?plan_goal=<id>
func (h *GoalCourseHandler) List(c *gin.Context) {
	goalID, ok := queryID(c, "plan_goal")
	if !ok {
		return
	}
	rows, err := h.courses.List(c.Request.Context(), goalID)
	if err != nil {
		respondErr(c, h.log, "list goal courses", err)
		return
	}
	response.RespondOK(c, mapViews(rows, newGoalCourseView))
}

// POST /api/learning-plan-goal-courses
// body: { "plan_goal": "<id>", "course_external_reference": "<xds id>" }
func (h *GoalCourseHandler) Create(c *gin.Context) {
	var req struct {
		PlanGoal                uuid.UUID `json:"plan_goal"`
		CourseExternalReference string    `json:"course_external_reference"`
	}
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.courses.Attach(c.Request.Context(), services.GoalCourseInput{
		PlanGoalID:      req.PlanGoal,
		CourseReference: req.CourseExternalReference,
	})
	if err != nil {
		respondErr(c, h.log, "attach course", err)
		return
	}
	response.RespondCreated(c, newGoalCourseView(row))
}

// GET /api/learning-plan-goal-courses/:id
func (h *GoalCourseHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, h.log, "get goal course", err)
		return
	}
	response.RespondOK(c, newGoalCourseView(row))
}

// PATCH /api/learning-plan-goal-courses/:id
func (h *GoalCourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	body, ok := bindPatch(c)
	if !ok {
		return
	}
	var patch services.GoalCoursePatch
	if err := firstErr(
		patchField(body, "plan_goal", &patch.PlanGoalID),
		patchField(body, "course_external_reference", &patch.CourseReference),
	); err != nil {
		badRequest(c, err.Error())
		return
	}
	row, err := h.courses.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, h.log, "update goal course", err)
		return
	}
	response.RespondOK(c, newGoalCourseView(row))
}

// DELETE /api/learning-plan-goal-courses/:id
func (h *GoalCourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.courses.Detach(c.Request.Context(), id); err != nil {
		respondErr(c, h.log, "detach course", err)
		return
	}
	response.RespondNoContent(c)
}
