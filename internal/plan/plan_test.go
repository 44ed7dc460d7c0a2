package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_ParentFields_SkipsAbsent(t *testing.T) {
	p := &Plan{ObjectID: "p-1", Org: "example.com"}

	fields := p.ParentFields()

	assert.Equal(t, map[string]interface{}{"_org": "example.com"}, fields)
}

func TestPlan_Children_FullFanout(t *testing.T) {
	p := basePlan()
	p.LinkedPlanServices[0].PlanserviceCostShares = &CostShare{
		ObjectID: "pcs-1",
		Copay:    numptr(175),
	}

	children := p.Children()

	require.Len(t, children, 3)
	assert.Equal(t, RelPlanCostShares, children[0].Rel)
	assert.Equal(t, "cs-1", children[0].ID)
	assert.Equal(t, RelLinkedPlanServices, children[1].Rel)
	assert.Equal(t, "svc-1", children[1].ID)
	assert.Equal(t, RelPlanserviceCostShares, children[2].Rel)
	assert.Equal(t, "pcs-1", children[2].ID)
}

func TestPlan_Children_SkipsEntitiesWithoutID(t *testing.T) {
	p := &Plan{
		ObjectID:       "p-1",
		PlanCostShares: &CostShare{Deductible: numptr(100)}, // no objectId
		LinkedPlanServices: []LinkedPlanService{
			{LinkedService: &Service{ObjectID: "svc-1"}},
		},
	}

	children := p.Children()

	require.Len(t, children, 1)
	assert.Equal(t, "svc-1", children[0].ID)
}

func TestFieldsOf_ZeroValuesSurvive(t *testing.T) {
	cs := &CostShare{ObjectID: "cs-1", Copay: numptr(0)}

	fields := FieldsOf(cs)

	// A zero copay is a real value, not an absent field
	assert.Equal(t, 0.0, fields["copay"])
	_, hasDeductible := fields["deductible"]
	assert.False(t, hasDeductible)
}
