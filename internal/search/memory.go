package search

import (
	"context"
	"sync"
)

// Doc 内存索引中的一份文档
type Doc struct {
	ID       string
	Rel      string
	ParentID string // 子文档指向的父 id，父文档为空
	Routing  string
	Fields   map[string]interface{}
}

// Memory 内存版 Store 实现（测试与本地运行用）
// 与 Elastic 实现遵守同一份契约：routing 共置、join 标签、删除语义
type Memory struct {
	mu   sync.RWMutex
	rels Relations
	docs map[string]*Doc
}

// NewMemory 创建内存索引
func NewMemory(rels Relations) *Memory {
	return &Memory{
		rels: rels,
		docs: make(map[string]*Doc),
	}
}

// EnsureIndex 实现 Store 接口（内存无需建索引）
func (m *Memory) EnsureIndex(ctx context.Context) error {
	return nil
}

// PutParent 实现 Store 接口
func (m *Memory) PutParent(ctx context.Context, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := &Doc{
		ID:      id,
		Rel:     m.rels.Parent,
		Routing: id,
		Fields:  make(map[string]interface{}, len(fields)+3),
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	doc.Fields["objectId"] = id
	doc.Fields["objectType"] = m.rels.Parent
	doc.Fields["rel"] = m.rels.Parent

	m.docs[id] = doc
	return nil
}

// MergeParent 实现 Store 接口
func (m *Memory) MergeParent(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		doc = &Doc{
			ID:      id,
			Rel:     m.rels.Parent,
			Routing: id,
			Fields: map[string]interface{}{
				"objectId": id,
				"rel":      m.rels.Parent,
			},
		}
		m.docs[id] = doc
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	return nil
}

// PutChild 实现 Store 接口
func (m *Memory) PutChild(ctx context.Context, parentID, childID, rel string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := &Doc{
		ID:       childID,
		Rel:      rel,
		ParentID: parentID,
		Routing:  parentID,
		Fields:   make(map[string]interface{}, len(fields)+1),
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	doc.Fields["rel"] = map[string]interface{}{"name": rel, "parent": parentID}

	m.docs[childID] = doc
	return nil
}

// DeleteParent 实现 Store 接口（不存在视为成功）
func (m *Memory) DeleteParent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[id]; ok && doc.Rel == m.rels.Parent {
		delete(m.docs, id)
	}
	return nil
}

// DeleteByParent 实现 Store 接口
func (m *Memory) DeleteByParent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for docID, doc := range m.docs {
		if doc.ParentID == id {
			delete(m.docs, docID)
		}
	}
	return nil
}

// DeleteByRouting 实现 Store 接口
func (m *Memory) DeleteByRouting(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for docID, doc := range m.docs {
		if doc.Routing == id {
			delete(m.docs, docID)
		}
	}
	return nil
}

// Get 按文档 id 查询（测试辅助）
func (m *Memory) Get(id string) (*Doc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	copied := *doc
	return &copied, true
}

// RoutedTo 查询 routing 指向给定 id 的全部文档（测试辅助）
func (m *Memory) RoutedTo(id string) []*Doc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Doc, 0)
	for _, doc := range m.docs {
		if doc.Routing == id {
			copied := *doc
			out = append(out, &copied)
		}
	}
	return out
}

// Len 文档总数（测试辅助）
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
