package search

import "context"

// Relations join 关系定义：一个父关系名加若干子关系名
type Relations struct {
	Parent   string
	Children []string
}

// Store 搜索索引存储接口（父子 join 文档模型）
// 约束：子文档的 routing 必须等于父文档 id，join 查询和级联删除都依赖同分片
type Store interface {
	// EnsureIndex 幂等地创建索引与别名
	EnsureIndex(ctx context.Context) error

	// PutParent 全量写入父文档（标量字段 + 根关系标签）
	PutParent(ctx context.Context, id string, fields map[string]interface{}) error

	// MergeParent 合并部分字段到父文档（merge 而非 replace）
	MergeParent(ctx context.Context, id string, fields map[string]interface{}) error

	// PutChild 写入子文档（关系标签 + 指向父文档的 routing）
	PutChild(ctx context.Context, parentID, childID, rel string, fields map[string]interface{}) error

	// DeleteParent 删除父文档（不存在视为成功）
	DeleteParent(ctx context.Context, id string) error

	// DeleteByParent 按 join 关系删除全部子文档
	DeleteByParent(ctx context.Context, id string) error

	// DeleteByRouting 按 routing 冗余删除（防关系元数据损坏的残留文档）
	DeleteByRouting(ctx context.Context, id string) error
}
