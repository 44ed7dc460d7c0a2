package plan

import "encoding/json"

// 索引层级关系名（父文档 "plan"，其余为子文档）
const (
	RelPlan                  = "plan"
	RelPlanCostShares        = "planCostShares"
	RelLinkedPlanServices    = "linkedPlanServices"
	RelPlanserviceCostShares = "planserviceCostShares"
)

// Plan 计划实体（KV 存储中的权威记录）
type Plan struct {
	ObjectID           string              `json:"objectId" binding:"required"`
	ObjectType         string              `json:"objectType,omitempty"`
	Org                string              `json:"_org,omitempty"`
	PlanType           string              `json:"planType,omitempty"`
	CreationDate       string              `json:"creationDate,omitempty"`
	PlanCostShares     *CostShare          `json:"planCostShares,omitempty"`
	LinkedPlanServices []LinkedPlanService `json:"linkedPlanServices,omitempty"`
}

// CostShare 费用分摊子实体
type CostShare struct {
	ObjectID   string   `json:"objectId,omitempty"`
	ObjectType string   `json:"objectType,omitempty"`
	Org        string   `json:"_org,omitempty"`
	Deductible *float64 `json:"deductible,omitempty"`
	Copay      *float64 `json:"copay,omitempty"`
}

// Service 服务子实体
type Service struct {
	ObjectID   string `json:"objectId,omitempty"`
	ObjectType string `json:"objectType,omitempty"`
	Org        string `json:"_org,omitempty"`
	Name       string `json:"name,omitempty"`
}

// LinkedPlanService 计划关联服务条目（自身带嵌套的服务与费用分摊）
type LinkedPlanService struct {
	ObjectID              string     `json:"objectId,omitempty"`
	ObjectType            string     `json:"objectType,omitempty"`
	Org                   string     `json:"_org,omitempty"`
	LinkedService         *Service   `json:"linkedService,omitempty"`
	PlanserviceCostShares *CostShare `json:"planserviceCostShares,omitempty"`
}

// Child 可独立索引的子文档（带 objectId 的子实体）
type Child struct {
	ID     string
	Rel    string
	Fields map[string]interface{}
}

// ParentFields 返回父文档索引的标量字段（只取存在的字段）
func (p *Plan) ParentFields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Org != "" {
		fields["_org"] = p.Org
	}
	if p.PlanType != "" {
		fields["planType"] = p.PlanType
	}
	if p.CreationDate != "" {
		fields["creationDate"] = p.CreationDate
	}
	return fields
}

// Children 展开所有可索引的子文档
// 没有 objectId 的子实体不可独立寻址，直接跳过
func (p *Plan) Children() []Child {
	children := make([]Child, 0)

	if cs := p.PlanCostShares; cs != nil && cs.ObjectID != "" {
		children = append(children, Child{
			ID:     cs.ObjectID,
			Rel:    RelPlanCostShares,
			Fields: FieldsOf(cs),
		})
	}

	for _, item := range p.LinkedPlanServices {
		if svc := item.LinkedService; svc != nil && svc.ObjectID != "" {
			children = append(children, Child{
				ID:     svc.ObjectID,
				Rel:    RelLinkedPlanServices,
				Fields: FieldsOf(svc),
			})
		}
		if cs := item.PlanserviceCostShares; cs != nil && cs.ObjectID != "" {
			children = append(children, Child{
				ID:     cs.ObjectID,
				Rel:    RelPlanserviceCostShares,
				Fields: FieldsOf(cs),
			})
		}
	}

	return children
}

// FieldsOf 将实体转换为索引文档字段
func FieldsOf(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return map[string]interface{}{}
	}
	return fields
}
