package etag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

func deductible(v float64) *float64 { return &v }

func TestFingerprint_Deterministic(t *testing.T) {
	p := &plan.Plan{
		ObjectID:   "p-1",
		ObjectType: "plan",
		Org:        "example.com",
		PlanType:   "inNetwork",
		PlanCostShares: &plan.CostShare{
			ObjectID:   "cs-1",
			Deductible: deductible(2000),
		},
	}

	first, err := Fingerprint(p)
	require.NoError(t, err)
	second, err := Fingerprint(p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32, "md5 hex digest")
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	p := &plan.Plan{ObjectID: "p-1", PlanType: "inNetwork"}
	before, err := Fingerprint(p)
	require.NoError(t, err)

	p.PlanType = "outOfNetwork"
	after, err := Fingerprint(p)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestCheckPrecondition(t *testing.T) {
	tests := []struct {
		name    string
		client  string
		current string
		want    bool
	}{
		{"no header passes", "", "abc", true},
		{"matching tag passes", "abc", "abc", true},
		{"stale tag fails", "old", "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPrecondition(tt.client, tt.current))
		})
	}
}

func TestCheckCached(t *testing.T) {
	assert.True(t, CheckCached("abc", "abc"))
	assert.False(t, CheckCached("", "abc"), "missing If-None-Match never matches")
	assert.False(t, CheckCached("old", "abc"))
}
