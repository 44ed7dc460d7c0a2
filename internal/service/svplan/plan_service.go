package svplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/etag"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/store"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

// 同步路径可见的业务错误
var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPreconditionFailed = errors.New("plan changed since client copy")
)

// JobPublisher 任务发布接口（写库成功后入队传播）
type JobPublisher interface {
	PublishJob(j *job.Job) error
}

// PlanService 计划服务，负责同步路径编排
// 前置条件检查严格先于任何状态变更；指纹在每次读取与成功写入后重算
type PlanService struct {
	store     store.PlanStore
	publisher JobPublisher
	logger    logger.Logger
}

// NewPlanService 创建计划服务实例
func NewPlanService(st store.PlanStore, pub JobPublisher, log logger.Logger) *PlanService {
	return &PlanService{
		store:     st,
		publisher: pub,
		logger:    log,
	}
}

// Create 创建计划：写库后入队全量索引 Job
// 入队失败原样上抛（queue.ErrUnavailable），记录已落库这一事实由调用方告知客户端
func (s *PlanService) Create(ctx context.Context, p *plan.Plan) (string, error) {
	if err := s.store.Set(ctx, p.ObjectID, p); err != nil {
		return "", fmt.Errorf("save plan failed: %w", err)
	}

	if err := s.publisher.PublishJob(job.NewIndex(p.ObjectID, p)); err != nil {
		return "", err
	}

	return etag.Fingerprint(p)
}

// Get 读取计划及其当前指纹
func (s *PlanService) Get(ctx context.Context, objectID string) (*plan.Plan, string, error) {
	p, err := s.store.Get(ctx, objectID)
	if err != nil {
		return nil, "", fmt.Errorf("load plan failed: %w", err)
	}
	if p == nil {
		return nil, "", ErrPlanNotFound
	}

	digest, err := etag.Fingerprint(p)
	if err != nil {
		return nil, "", err
	}
	return p, digest, nil
}

// Replace 全量替换：If-Match 不一致时拒绝，且不落库不入队
func (s *PlanService) Replace(ctx context.Context, objectID string, p *plan.Plan, ifMatch string) (string, error) {
	existing, err := s.store.Get(ctx, objectID)
	if err != nil {
		return "", fmt.Errorf("load plan failed: %w", err)
	}
	if existing != nil {
		current, err := etag.Fingerprint(existing)
		if err != nil {
			return "", err
		}
		if !etag.CheckPrecondition(ifMatch, current) {
			return "", ErrPreconditionFailed
		}
	}

	if err := s.store.Set(ctx, objectID, p); err != nil {
		return "", fmt.Errorf("save plan failed: %w", err)
	}

	if err := s.publisher.PublishJob(job.NewIndex(objectID, p)); err != nil {
		return "", err
	}

	return etag.Fingerprint(p)
}

// Patch 部分更新：结构化合并后落库，并入队带 child_ops 的部分更新 Job
func (s *PlanService) Patch(ctx context.Context, objectID string, patch *plan.Patch, ifMatch string) (*plan.Plan, string, []job.ChildOp, error) {
	existing, err := s.store.Get(ctx, objectID)
	if err != nil {
		return nil, "", nil, fmt.Errorf("load plan failed: %w", err)
	}
	if existing == nil {
		return nil, "", nil, ErrPlanNotFound
	}

	current, err := etag.Fingerprint(existing)
	if err != nil {
		return nil, "", nil, err
	}
	if !etag.CheckPrecondition(ifMatch, current) {
		return nil, "", nil, ErrPreconditionFailed
	}

	merged := *existing
	merged.Merge(patch)

	if err := s.store.Set(ctx, objectID, &merged); err != nil {
		return nil, "", nil, fmt.Errorf("save plan failed: %w", err)
	}

	ops := job.ChildOpsFromPatch(objectID, patch)
	if err := s.publisher.PublishJob(job.NewPatch(objectID, &patch.ParentPatch, ops)); err != nil {
		return nil, "", nil, err
	}

	digest, err := etag.Fingerprint(&merged)
	if err != nil {
		return nil, "", nil, err
	}
	return &merged, digest, ops, nil
}

// Delete 删除记录并入队级联删除 Job
// 索引侧删除幂等，记录不存在也照常入队清理残留
func (s *PlanService) Delete(ctx context.Context, objectID string) error {
	existed, err := s.store.Delete(ctx, objectID)
	if err != nil {
		return fmt.Errorf("delete plan failed: %w", err)
	}

	if err := s.publisher.PublishJob(job.NewDelete(objectID)); err != nil {
		return err
	}

	if !existed {
		return ErrPlanNotFound
	}
	return nil
}
