package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/errorutil"
)

// ElasticConfig Elasticsearch 配置
type ElasticConfig struct {
	URL   string `mapstructure:"url"`
	Index string `mapstructure:"index"`
	Alias string `mapstructure:"alias"`
}

// Elastic 基于 Elasticsearch join 字段的 Store 实现
type Elastic struct {
	es    *elasticsearch.Client
	index string
	alias string
	rels  Relations
}

// NewElastic 创建 Elasticsearch 存储
func NewElastic(cfg ElasticConfig, rels Relations) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client failed: %w", err)
	}
	return &Elastic{
		es:    es,
		index: cfg.Index,
		alias: cfg.Alias,
		rels:  rels,
	}, nil
}

// EnsureIndex 幂等创建索引（join 字段映射）并挂别名
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{e.index}}
	res, err := existsReq.Do(ctx, e.es)
	if err != nil {
		return errorutil.RetriableWithDetails("search index unreachable", err.Error())
	}
	exists := res.StatusCode == http.StatusOK
	res.Body.Close()

	if !exists {
		mapping := map[string]interface{}{
			"settings": map[string]interface{}{
				"index": map[string]interface{}{
					"number_of_shards":   1,
					"number_of_replicas": 0,
				},
			},
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"rel": map[string]interface{}{
						"type": "join",
						"relations": map[string]interface{}{
							e.rels.Parent: e.rels.Children,
						},
						"eager_global_ordinals": true,
					},
					"_org":       map[string]interface{}{"type": "keyword"},
					"objectId":   map[string]interface{}{"type": "keyword"},
					"objectType": map[string]interface{}{"type": "keyword"},
					"planType":   map[string]interface{}{"type": "keyword"},
					"creationDate": map[string]interface{}{
						"type":   "date",
						"format": "yyyy-MM-dd||strict_date_optional_time",
					},
					"name":       map[string]interface{}{"type": "text"},
					"copay":      map[string]interface{}{"type": "float"},
					"deductible": map[string]interface{}{"type": "float"},
				},
			},
		}
		body, err := json.Marshal(mapping)
		if err != nil {
			return fmt.Errorf("marshal index mapping failed: %w", err)
		}

		createReq := esapi.IndicesCreateRequest{
			Index: e.index,
			Body:  bytes.NewReader(body),
		}
		if err := e.do(ctx, createReq); err != nil {
			return err
		}
	}

	if e.alias != "" {
		aliasReq := esapi.IndicesPutAliasRequest{
			Index: []string{e.index},
			Name:  e.alias,
		}
		if err := e.do(ctx, aliasReq); err != nil {
			return err
		}
	}

	return nil
}

// PutParent 全量写入父文档，routing 为自身 id
func (e *Elastic) PutParent(ctx context.Context, id string, fields map[string]interface{}) error {
	doc := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		doc[k] = v
	}
	doc["objectId"] = id
	doc["objectType"] = e.rels.Parent
	doc["rel"] = e.rels.Parent

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal parent doc failed: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Routing:    id,
		Refresh:    "wait_for",
	}
	return e.do(ctx, req)
}

// MergeParent 合并部分字段（doc_as_upsert，缺省字段保持原状）
func (e *Elastic) MergeParent(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	doc := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	doc["objectId"] = id
	doc["rel"] = e.rels.Parent

	body, err := json.Marshal(map[string]interface{}{
		"doc":           doc,
		"doc_as_upsert": true,
	})
	if err != nil {
		return fmt.Errorf("marshal parent merge failed: %w", err)
	}

	req := esapi.UpdateRequest{
		Index:      e.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Routing:    id,
		Refresh:    "wait_for",
	}
	return e.do(ctx, req)
}

// PutChild 写入子文档，routing 固定为父文档 id
func (e *Elastic) PutChild(ctx context.Context, parentID, childID, rel string, fields map[string]interface{}) error {
	doc := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["rel"] = map[string]interface{}{
		"name":   rel,
		"parent": parentID,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal child doc failed: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: childID,
		Body:       bytes.NewReader(body),
		Routing:    parentID,
		Refresh:    "wait_for",
	}
	return e.do(ctx, req)
}

// DeleteParent 删除父文档，不存在按成功处理
func (e *Elastic) DeleteParent(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id,
		Routing:    id,
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, e.es)
	if err != nil {
		return errorutil.RetriableWithDetails("search index unreachable", err.Error())
	}
	defer res.Body.Close()

	// 已删除或从未索引过，静默成功
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return e.classify(res)
	}
	return nil
}

// DeleteByParent 按 has_parent 查询删除子文档
func (e *Elastic) DeleteByParent(ctx context.Context, id string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"has_parent": map[string]interface{}{
				"parent_type": e.rels.Parent,
				"query": map[string]interface{}{
					"term": map[string]interface{}{"_id": id},
				},
			},
		},
	}
	return e.deleteByQuery(ctx, query)
}

// DeleteByRouting 按 _routing 冗余删除
func (e *Elastic) DeleteByRouting(ctx context.Context, id string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"_routing": id},
		},
	}
	return e.deleteByQuery(ctx, query)
}

func (e *Elastic) deleteByQuery(ctx context.Context, query map[string]interface{}) error {
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal delete query failed: %w", err)
	}

	req := esapi.DeleteByQueryRequest{
		Index:   []string{e.index},
		Body:    bytes.NewReader(body),
		Refresh: esapi.BoolPtr(true),
	}
	return e.do(ctx, req)
}

// doer esapi 请求的公共执行形状
type doer interface {
	Do(ctx context.Context, transport esapi.Transport) (*esapi.Response, error)
}

// do 执行请求并分类错误
func (e *Elastic) do(ctx context.Context, req doer) error {
	res, err := req.Do(ctx, e.es)
	if err != nil {
		// 传输层失败：下游暂时不可达，可重试
		return errorutil.RetriableWithDetails("search index unreachable", err.Error())
	}
	defer res.Body.Close()

	if res.IsError() {
		return e.classify(res)
	}
	return nil
}

// classify 按状态码区分瞬时失败与永久失败
func (e *Elastic) classify(res *esapi.Response) error {
	detail := res.Status()
	if body, err := io.ReadAll(res.Body); err == nil && len(body) > 0 {
		detail = fmt.Sprintf("%s: %s", res.Status(), body)
	}

	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
		return errorutil.RetriableWithDetails("search index error", detail)
	}
	return errorutil.NonRetriableWithDetails("search index rejected request", detail)
}
