package plan

import (
	"errors"

	"github.com/gin-gonic/gin"

	etplan "github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/ginx"
)

// Patch 部分更新接口（支持 If-Match 条件写）
// PATCH /api/v1/plan/:id
func (h *PlanHandler) Patch(c *gin.Context) {
	objectID := c.Param("id")
	if objectID == "" {
		ginx.BadRequest(c, "objectId required")
		return
	}

	var patch etplan.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	_, digest, ops, err := h.planService.Patch(c.Request.Context(), objectID, &patch, c.GetHeader("If-Match"))
	if err != nil {
		switch {
		case errors.Is(err, svplan.ErrPlanNotFound):
			ginx.NotFound(c, "plan not found")
		case errors.Is(err, svplan.ErrPreconditionFailed):
			ginx.PreconditionFailed(c, "Resource changed")
		case errors.Is(err, queue.ErrUnavailable):
			ginx.ServiceUnavailable(c, "Plan stored but not queued for indexing")
		default:
			ginx.InternalError(c, err.Error())
		}
		return
	}

	// 汇总本次实际应用的更新项
	applied := make([]gin.H, 0, len(ops)+1)
	if fields := patch.ParentPatch.Fields(); len(fields) > 0 {
		entry := gin.H{"type": etplan.RelPlan}
		for k, v := range fields {
			entry[k] = v
		}
		applied = append(applied, entry)
	}
	for _, op := range ops {
		applied = append(applied, gin.H{"type": op.Rel, "objectId": op.ID})
	}

	c.Header("ETag", digest)
	ginx.Success(c, gin.H{
		"planId":  objectID,
		"applied": applied,
	})
}
