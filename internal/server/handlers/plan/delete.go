package plan

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/ginx"
)

// Delete 删除接口（索引侧级联删除异步完成）
// DELETE /api/v1/plan/:id
func (h *PlanHandler) Delete(c *gin.Context) {
	objectID := c.Param("id")
	if objectID == "" {
		ginx.BadRequest(c, "objectId required")
		return
	}

	err := h.planService.Delete(c.Request.Context(), objectID)
	if err != nil {
		switch {
		case errors.Is(err, svplan.ErrPlanNotFound):
			ginx.NotFound(c, "plan not found")
		case errors.Is(err, queue.ErrUnavailable):
			ginx.ServiceUnavailable(c, "Plan deleted but not queued for index cleanup")
		default:
			ginx.InternalError(c, err.Error())
		}
		return
	}

	c.Status(http.StatusAccepted)
}
