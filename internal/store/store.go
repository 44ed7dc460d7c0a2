package store

import (
	"context"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

// PlanStore 系统记录存储接口（权威记录的唯一拥有者）
type PlanStore interface {
	// Get 按 id 读取，不存在返回 (nil, nil)
	Get(ctx context.Context, objectID string) (*plan.Plan, error)

	// Set 写入记录
	Set(ctx context.Context, objectID string, p *plan.Plan) error

	// Delete 删除记录，返回删除前是否存在
	Delete(ctx context.Context, objectID string) (bool, error)
}
