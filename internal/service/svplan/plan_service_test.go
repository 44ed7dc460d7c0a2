package svplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/store"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

func strptr(s string) *string { return &s }

// fakePublisher records published jobs and can simulate a broker outage.
type fakePublisher struct {
	jobs []*job.Job
	err  error
}

func (p *fakePublisher) PublishJob(j *job.Job) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, j)
	return nil
}

func newTestService() (*PlanService, *store.MemoryStore, *fakePublisher) {
	st := store.NewMemoryStore()
	pub := &fakePublisher{}
	return NewPlanService(st, pub, logger.NewNop()), st, pub
}

func samplePlan(id string) *plan.Plan {
	return &plan.Plan{ObjectID: id, ObjectType: "plan", PlanType: "inNetwork"}
}

func TestPlanService_CreateThenGet(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	digest, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	require.Len(t, pub.jobs, 1)
	assert.Equal(t, job.TypeIndex, pub.jobs[0].Type)
	assert.Equal(t, "p-1", pub.jobs[0].ID)

	got, gotDigest, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "inNetwork", got.PlanType)
	assert.Equal(t, digest, gotDigest, "fingerprint is stable for the same record")
}

func TestPlanService_GetMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanService_CreateQueueDown(t *testing.T) {
	svc, st, pub := newTestService()
	pub.err = queue.ErrUnavailable

	_, err := svc.Create(context.Background(), samplePlan("p-1"))
	require.ErrorIs(t, err, queue.ErrUnavailable)

	// The record itself was persisted before the publish failed
	p, err := st.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestPlanService_ReplacePrecondition(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	digest, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)

	// Stale tag: no write, no publish
	_, err = svc.Replace(ctx, "p-1", samplePlan("p-1"), "stale")
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Len(t, pub.jobs, 1)

	got, _, err := svc.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "inNetwork", got.PlanType, "rejected replace leaves the record untouched")

	// Matching tag goes through
	updated := samplePlan("p-1")
	updated.PlanType = "outOfNetwork"
	newDigest, err := svc.Replace(ctx, "p-1", updated, digest)
	require.NoError(t, err)
	assert.NotEqual(t, digest, newDigest)
	assert.Len(t, pub.jobs, 2)
}

func TestPlanService_ReplaceWithoutIfMatch(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)

	_, err = svc.Replace(ctx, "p-1", samplePlan("p-1"), "")
	assert.NoError(t, err, "missing If-Match is an unconditional write")
}

func TestPlanService_Patch(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	p := samplePlan("p-1")
	p.PlanCostShares = &plan.CostShare{ObjectID: "cs-1"}
	digest, err := svc.Create(ctx, p)
	require.NoError(t, err)

	patch := &plan.Patch{
		ParentPatch:    plan.ParentPatch{PlanType: strptr("outOfNetwork")},
		PlanCostShares: &plan.CostShare{ObjectID: "cs-1"},
	}
	merged, newDigest, ops, err := svc.Patch(ctx, "p-1", patch, digest)
	require.NoError(t, err)

	assert.Equal(t, "outOfNetwork", merged.PlanType)
	assert.NotEqual(t, digest, newDigest)
	require.Len(t, ops, 1)
	assert.Equal(t, plan.RelPlanCostShares, ops[0].Rel)

	require.Len(t, pub.jobs, 2)
	patchJob := pub.jobs[1]
	assert.Equal(t, job.TypePatch, patchJob.Type)
	require.NotNil(t, patchJob.PlanDoc)
	assert.Equal(t, "outOfNetwork", *patchJob.PlanDoc.PlanType)
}

func TestPlanService_PatchMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, _, err := svc.Patch(context.Background(), "ghost", &plan.Patch{}, "")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanService_PatchStaleTag(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)

	_, _, _, err = svc.Patch(ctx, "p-1", &plan.Patch{
		ParentPatch: plan.ParentPatch{PlanType: strptr("outOfNetwork")},
	}, "stale")
	require.ErrorIs(t, err, ErrPreconditionFailed)
	assert.Len(t, pub.jobs, 1, "rejected patch publishes nothing")
}

func TestPlanService_Delete(t *testing.T) {
	svc, st, pub := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "p-1"))
	assert.Zero(t, st.Len())

	require.Len(t, pub.jobs, 2)
	assert.Equal(t, job.TypeDelete, pub.jobs[1].Type)
}

func TestPlanService_DeleteMissingStillCleansIndex(t *testing.T) {
	svc, _, pub := newTestService()

	err := svc.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPlanNotFound)
	// Cascade cleanup is published anyway: index-side delete is idempotent
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, job.TypeDelete, pub.jobs[0].Type)
}

func TestPlanService_DeleteQueueDown(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, samplePlan("p-1"))
	require.NoError(t, err)

	pub.err = errors.New("broker down")
	err = svc.Delete(ctx, "p-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPlanNotFound)
}
