package indexer

import (
	"context"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/search"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/errorutil"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

// PlanRelations 计划层级的 join 关系定义
func PlanRelations() search.Relations {
	return search.Relations{
		Parent: plan.RelPlan,
		Children: []string{
			plan.RelPlanCostShares,
			plan.RelLinkedPlanServices,
			plan.RelPlanserviceCostShares,
		},
	}
}

// Indexer 扇出索引器：把层级记录拆成父文档加若干子文档写入索引
// 所有写入都是幂等 upsert，同一记录重复应用索引状态不变
type Indexer struct {
	store  search.Store
	logger logger.Logger
}

// NewIndexer 创建扇出索引器
func NewIndexer(store search.Store, log logger.Logger) *Indexer {
	return &Indexer{
		store:  store,
		logger: log,
	}
}

// IndexPlan 全量索引一条计划记录
// 父文档只带标量字段；带 objectId 的子实体各自成为子文档，routing 指向父 id
func (ix *Indexer) IndexPlan(ctx context.Context, p *plan.Plan) error {
	if p == nil || p.ObjectID == "" {
		return errorutil.NonRetriable("invalid record: objectId is required")
	}

	if err := ix.store.PutParent(ctx, p.ObjectID, p.ParentFields()); err != nil {
		return err
	}

	children := p.Children()
	for _, child := range children {
		if err := ix.store.PutChild(ctx, p.ObjectID, child.ID, child.Rel, child.Fields); err != nil {
			return err
		}
	}

	ix.logger.Infof(ctx, "[Indexer] Indexed plan %s with %d children", p.ObjectID, len(children))
	return nil
}

// PatchPlan 应用部分更新
// 父文档按字段合并；child_ops 各自独立 upsert；缺省的子文档保持原状（只增改不删）
func (ix *Indexer) PatchPlan(ctx context.Context, id string, parentPatch *plan.ParentPatch, ops []job.ChildOp) error {
	if id == "" {
		return errorutil.NonRetriable("invalid record: objectId is required")
	}

	if err := ix.store.MergeParent(ctx, id, parentPatch.Fields()); err != nil {
		return err
	}

	for _, op := range ops {
		if op.ID == "" {
			// 无 id 的子实体不可独立寻址，跳过而不是报错
			continue
		}
		parentID := op.ParentID
		if parentID == "" {
			parentID = id
		}
		if err := ix.store.PutChild(ctx, parentID, op.ID, op.Rel, op.Doc); err != nil {
			return err
		}
	}

	ix.logger.Infof(ctx, "[Indexer] Patched plan %s with %d child ops", id, len(ops))
	return nil
}

// DeletePlan 级联删除
// 先删父文档（不存在视为成功），再按 join 关系删子文档，
// 最后按 routing 冗余清理关系元数据损坏的残留
func (ix *Indexer) DeletePlan(ctx context.Context, id string) error {
	if id == "" {
		return errorutil.NonRetriable("invalid record: objectId is required")
	}

	if err := ix.store.DeleteParent(ctx, id); err != nil {
		return err
	}
	if err := ix.store.DeleteByParent(ctx, id); err != nil {
		return err
	}
	if err := ix.store.DeleteByRouting(ctx, id); err != nil {
		return err
	}

	ix.logger.Infof(ctx, "[Indexer] Deleted plan %s and cascaded children", id)
	return nil
}
