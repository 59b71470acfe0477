package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/adlnet/edlm-portal-backend/internal/domain"
	"github.com/adlnet/edlm-portal-backend/internal/domain/errs"
	"github.com/adlnet/edlm-portal-backend/internal/pkg/ctxutil"
)

// callerID is the authenticated learner. Every read and write below a
// learning plan is scoped to it.
func callerID(ctx context.Context, op string) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errs.New(errs.CodeForbidden, op, "Authentication credentials were not provided.", nil)
	}
	return rd.UserID, nil
}

func notFound(op string) error { return errs.NotFound(op, "Not found.") }

func competencyPlan(pc *types.LearningPlanCompetency) *types.LearningPlan {
	if pc == nil {
		return nil
	}
	return pc.LearningPlan
}

func goalPlan(g *types.LearningPlanGoal) *types.LearningPlan {
	if g == nil {
		return nil
	}
	return competencyPlan(g.PlanCompetency)
}

func ownsPlan(p *types.LearningPlan, learnerID uuid.UUID) bool {
	return p != nil && p.LearnerID == learnerID
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
