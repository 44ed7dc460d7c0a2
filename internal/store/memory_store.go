package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/plan"
)

// MemoryStore 内存版 PlanStore（测试用）
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get 实现 PlanStore 接口
func (s *MemoryStore) Get(ctx context.Context, objectID string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.data[objectID]
	if !ok {
		return nil, nil
	}
	var p plan.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set 实现 PlanStore 接口
func (s *MemoryStore) Set(ctx context.Context, objectID string, p *plan.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectID] = data
	return nil
}

// Delete 实现 PlanStore 接口
func (s *MemoryStore) Delete(ctx context.Context, objectID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.data[objectID]
	delete(s.data, objectID)
	return existed, nil
}

// Len 记录总数（测试辅助）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
