package plan

import (
	"errors"

	"github.com/gin-gonic/gin"

	etplan "github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/ginx"
)

// Create 创建计划接口
// POST /api/v1/plan
func (h *PlanHandler) Create(c *gin.Context) {
	var p etplan.Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	digest, err := h.planService.Create(c.Request.Context(), &p)
	if err != nil {
		// 记录已落库但 Job 未入队：显式告知，不与校验类错误混淆
		if errors.Is(err, queue.ErrUnavailable) {
			ginx.ServiceUnavailable(c, "Plan stored but not queued for indexing")
			return
		}
		ginx.InternalError(c, err.Error())
		return
	}

	c.Header("ETag", digest)
	c.Header("Location", "/api/v1/plan/"+p.ObjectID)
	ginx.Created(c, gin.H{"objectId": p.ObjectID})
}
