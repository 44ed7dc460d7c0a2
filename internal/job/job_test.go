package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

func strptr(s string) *string { return &s }

func TestJob_EncodeDecode_RoundTrip(t *testing.T) {
	original := NewIndex("p-1", &plan.Plan{ObjectID: "p-1", PlanType: "inNetwork"})
	original.Attempt = 3

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeIndex, decoded.Type)
	assert.Equal(t, "p-1", decoded.ID)
	assert.Equal(t, 3, decoded.Attempt, "retry count survives the wire")
	require.NotNil(t, decoded.Doc)
	assert.Equal(t, "inNetwork", decoded.Doc.PlanType)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"reindex","id":"p-1"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestValidate_ShapePerType(t *testing.T) {
	assert.Error(t, (&Job{Type: TypeIndex, ID: "p-1"}).Validate(), "index requires doc")
	assert.Error(t, (&Job{Type: TypePatch, ID: "p-1"}).Validate(), "patch requires plan_doc or child_ops")
	assert.Error(t, (&Job{Type: TypeDelete}).Validate(), "id is required")
	assert.NoError(t, NewDelete("p-1").Validate())
	assert.NoError(t, NewPatch("p-1", &plan.ParentPatch{PlanType: strptr("inNetwork")}, nil).Validate())
}

func TestChildOpsFromPatch(t *testing.T) {
	deductible := 500.0
	patch := &plan.Patch{
		PlanCostShares: &plan.CostShare{ObjectID: "cs-1", Deductible: &deductible},
		LinkedPlanServices: []plan.LinkedPlanService{
			{
				ObjectID:              "lps-1",
				LinkedService:         &plan.Service{ObjectID: "svc-1", Name: "Well baby"},
				PlanserviceCostShares: &plan.CostShare{ObjectID: "pcs-1"},
			},
			{
				// No indexable ids anywhere: contributes nothing
				LinkedService: &plan.Service{Name: "anonymous"},
			},
		},
	}

	ops := ChildOpsFromPatch("p-1", patch)

	require.Len(t, ops, 3)
	for _, op := range ops {
		assert.Equal(t, "p-1", op.ParentID)
	}
	assert.Equal(t, plan.RelPlanCostShares, ops[0].Rel)
	assert.Equal(t, "cs-1", ops[0].ID)
	assert.Equal(t, plan.RelLinkedPlanServices, ops[1].Rel)
	assert.Equal(t, "svc-1", ops[1].ID)
	assert.Equal(t, "Well baby", ops[1].Doc["name"])
	assert.Equal(t, plan.RelPlanserviceCostShares, ops[2].Rel)
}

func TestChildOpsFromPatch_NilPatch(t *testing.T) {
	assert.Empty(t, ChildOpsFromPatch("p-1", nil))
}
