package plan

import "github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"

// PlanHandler 计划 HTTP 处理器
type PlanHandler struct {
	planService *svplan.PlanService
}

// NewPlanHandler 创建计划处理器实例
func NewPlanHandler(planService *svplan.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}
