package plan

// ParentPatch 父文档标量字段的部分更新（job 里的 plan_doc）
type ParentPatch struct {
	Org          *string `json:"_org,omitempty"`
	PlanType     *string `json:"planType,omitempty"`
	CreationDate *string `json:"creationDate,omitempty"`
}

// Fields 返回实际出现的标量字段
func (pp *ParentPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if pp == nil {
		return fields
	}
	if pp.Org != nil {
		fields["_org"] = *pp.Org
	}
	if pp.PlanType != nil {
		fields["planType"] = *pp.PlanType
	}
	if pp.CreationDate != nil {
		fields["creationDate"] = *pp.CreationDate
	}
	return fields
}

// IsEmpty 是否没有任何标量字段
func (pp *ParentPatch) IsEmpty() bool {
	return pp == nil || (pp.Org == nil && pp.PlanType == nil && pp.CreationDate == nil)
}

// Patch 计划的部分更新（PATCH 请求体）
// 缺省字段不参与合并：部分更新只增改、不删除
type Patch struct {
	ParentPatch
	ObjectType         *string             `json:"objectType,omitempty"`
	PlanCostShares     *CostShare          `json:"planCostShares,omitempty"`
	LinkedPlanServices []LinkedPlanService `json:"linkedPlanServices,omitempty"`
}

// Merge 按字段策略合并部分更新：
//   - 标量字段：出现即覆盖
//   - planCostShares：出现即整体替换
//   - linkedPlanServices：按 objectId 逐条 upsert，缺省条目保留
func (p *Plan) Merge(patch *Patch) {
	if patch == nil {
		return
	}

	if patch.Org != nil {
		p.Org = *patch.Org
	}
	if patch.PlanType != nil {
		p.PlanType = *patch.PlanType
	}
	if patch.CreationDate != nil {
		p.CreationDate = *patch.CreationDate
	}
	if patch.ObjectType != nil {
		p.ObjectType = *patch.ObjectType
	}

	if patch.PlanCostShares != nil {
		cs := *patch.PlanCostShares
		p.PlanCostShares = &cs
	}

	for _, item := range patch.LinkedPlanServices {
		p.upsertLinkedService(item)
	}
}

// upsertLinkedService 按 objectId 定位条目：命中则替换，未命中则追加
func (p *Plan) upsertLinkedService(item LinkedPlanService) {
	if item.ObjectID != "" {
		for i := range p.LinkedPlanServices {
			if p.LinkedPlanServices[i].ObjectID == item.ObjectID {
				p.LinkedPlanServices[i] = item
				return
			}
		}
	}
	p.LinkedPlanServices = append(p.LinkedPlanServices, item)
}
