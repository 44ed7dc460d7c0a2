package plan

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/etag"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/ginx"
)

// Get 查询计划接口（支持 If-None-Match 条件读）
// GET /api/v1/plan/:id
func (h *PlanHandler) Get(c *gin.Context) {
	objectID := c.Param("id")
	if objectID == "" {
		ginx.BadRequest(c, "objectId required")
		return
	}

	p, digest, err := h.planService.Get(c.Request.Context(), objectID)
	if err != nil {
		if errors.Is(err, svplan.ErrPlanNotFound) {
			ginx.NotFound(c, "plan not found")
			return
		}
		ginx.InternalError(c, err.Error())
		return
	}

	c.Header("ETag", digest)

	// 客户端副本未过期，省掉记录体传输
	if etag.CheckCached(c.GetHeader("If-None-Match"), digest) {
		c.Status(http.StatusNotModified)
		return
	}

	ginx.Success(c, p)
}
