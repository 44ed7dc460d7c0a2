package job

import (
	"encoding/json"
	"fmt"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

// Type Job 类型（带标签的变体，派发时穷举匹配）
type Type string

const (
	TypeIndex  Type = "index"  // 全量索引：payload 为 doc
	TypePatch  Type = "patch"  // 部分更新：payload 为 plan_doc + child_ops
	TypeDelete Type = "delete" // 级联删除：只带 id
)

// Job 队列中的指令单元
// 发布后不可变；重试时以 attempt+1 的副本重新发布，其余字段原样透传
type Job struct {
	Type     Type              `json:"type"`
	ID       string            `json:"id"`
	Doc      *plan.Plan        `json:"doc,omitempty"`
	PlanDoc  *plan.ParentPatch `json:"plan_doc,omitempty"`
	ChildOps []ChildOp         `json:"child_ops,omitempty"`
	Attempt  int               `json:"attempt,omitempty"`
}

// ChildOp 子文档 upsert 指令（patch job 的展开项）
type ChildOp struct {
	Rel      string                 `json:"type"`
	ParentID string                 `json:"parentId"`
	ID       string                 `json:"id"`
	Doc      map[string]interface{} `json:"doc"`
}

// Encode 序列化 Job（队列线格式）
func (j *Job) Encode() ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("marshal job failed: %w", err)
	}
	return data, nil
}

// Decode 反序列化并校验 Job
func Decode(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job failed: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return &j, nil
}

// Validate 按类型校验 payload 形状
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	switch j.Type {
	case TypeIndex:
		if j.Doc == nil {
			return fmt.Errorf("index job requires doc")
		}
	case TypePatch:
		if j.PlanDoc.IsEmpty() && len(j.ChildOps) == 0 {
			return fmt.Errorf("patch job requires plan_doc or child_ops")
		}
	case TypeDelete:
		// 只需要 id
	default:
		return fmt.Errorf("unknown job type %q", j.Type)
	}
	return nil
}

// NewIndex 构造全量索引 Job
func NewIndex(id string, doc *plan.Plan) *Job {
	return &Job{Type: TypeIndex, ID: id, Doc: doc}
}

// NewPatch 构造部分更新 Job
func NewPatch(id string, planDoc *plan.ParentPatch, ops []ChildOp) *Job {
	return &Job{Type: TypePatch, ID: id, PlanDoc: planDoc, ChildOps: ops}
}

// NewDelete 构造级联删除 Job
func NewDelete(id string) *Job {
	return &Job{Type: TypeDelete, ID: id}
}

// ChildOpsFromPatch 从部分更新中提取带 objectId 的子文档指令
// 没有 objectId 的子实体不可索引，跳过
func ChildOpsFromPatch(parentID string, patch *plan.Patch) []ChildOp {
	ops := make([]ChildOp, 0)
	if patch == nil {
		return ops
	}

	if cs := patch.PlanCostShares; cs != nil && cs.ObjectID != "" {
		ops = append(ops, ChildOp{
			Rel:      plan.RelPlanCostShares,
			ParentID: parentID,
			ID:       cs.ObjectID,
			Doc:      plan.FieldsOf(cs),
		})
	}

	for _, item := range patch.LinkedPlanServices {
		if svc := item.LinkedService; svc != nil && svc.ObjectID != "" {
			ops = append(ops, ChildOp{
				Rel:      plan.RelLinkedPlanServices,
				ParentID: parentID,
				ID:       svc.ObjectID,
				Doc:      plan.FieldsOf(svc),
			})
		}
		if cs := item.PlanserviceCostShares; cs != nil && cs.ObjectID != "" {
			ops = append(ops, ChildOp{
				Rel:      plan.RelPlanserviceCostShares,
				ParentID: parentID,
				ID:       cs.ObjectID,
				Doc:      plan.FieldsOf(cs),
			})
		}
	}

	return ops
}
