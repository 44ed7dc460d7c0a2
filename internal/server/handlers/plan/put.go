package plan

import (
	"errors"

	"github.com/gin-gonic/gin"

	etplan "github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/ginx"
)

// Put 全量替换接口（支持 If-Match 条件写）
// PUT /api/v1/plan/:id
func (h *PlanHandler) Put(c *gin.Context) {
	objectID := c.Param("id")
	if objectID == "" {
		ginx.BadRequest(c, "objectId required")
		return
	}

	var p etplan.Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}
	if p.ObjectID != objectID {
		ginx.BadRequest(c, "objectId in body does not match path")
		return
	}

	digest, err := h.planService.Replace(c.Request.Context(), objectID, &p, c.GetHeader("If-Match"))
	if err != nil {
		switch {
		case errors.Is(err, svplan.ErrPreconditionFailed):
			ginx.PreconditionFailed(c, "Resource changed")
		case errors.Is(err, queue.ErrUnavailable):
			ginx.ServiceUnavailable(c, "Plan stored but not queued for indexing")
		default:
			ginx.InternalError(c, err.Error())
		}
		return
	}

	c.Header("ETag", digest)
	ginx.Created(c, gin.H{"objectId": objectID})
}
