package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/lmstfy"
)

// ErrUnavailable 队列不可达
// 同步 API 据此降级为 503，而不是把"未入队"当成功返回
var ErrUnavailable = errors.New("queue unavailable")

// Message 一次投递（消费侧流转结构）
type Message struct {
	ID   string
	Data []byte
}

// Source 消息源接口（适配不同 MQ）
type Source interface {
	// Consume 消费消息（阻塞直到拉到消息或超时，超时返回 nil）
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	// Ack 确认消息（删除消息）
	Ack(queue string, jobID string) error

	// Publish 发布消息
	Publish(queue string, data []byte) error
}

// DeadLetter 死信信封：原始 Job 加最后一次错误
type DeadLetter struct {
	Error string          `json:"error"`
	Job   json.RawMessage `json:"job"`
}

// Config 队列拓扑配置
type Config struct {
	Name       string `mapstructure:"name"`        // 主队列
	DeadLetter string `mapstructure:"dead_letter"` // 死信队列
	TTL        uint32 `mapstructure:"ttl"`         // 消息存活时间（秒，0 不过期）
	Tries      uint16 `mapstructure:"tries"`       // broker 层投递次数兜底
}

// JobQueue 任务队列客户端（生产者与 worker 的重发/死信路径共用）
type JobQueue struct {
	source Source
	cfg    Config
}

// NewJobQueue 创建任务队列客户端
func NewJobQueue(source Source, cfg Config) *JobQueue {
	if cfg.Tries == 0 {
		cfg.Tries = 3
	}
	return &JobQueue{source: source, cfg: cfg}
}

// Name 主队列名
func (q *JobQueue) Name() string {
	return q.cfg.Name
}

// DeadLetterName 死信队列名
func (q *JobQueue) DeadLetterName() string {
	return q.cfg.DeadLetter
}

// PublishJob 发布 Job 到主队列
// 传输层失败统一折叠为 ErrUnavailable
func (q *JobQueue) PublishJob(j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}
	if err := q.source.Publish(q.cfg.Name, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// PublishDead 把 Job 连同最后一次错误发布到死信队列
func (q *JobQueue) PublishDead(j *job.Job, cause error) error {
	raw, err := j.Encode()
	if err != nil {
		return err
	}
	return q.PublishDeadRaw(raw, cause)
}

// PublishDeadRaw 死信无法解析的原始负载（Job 原文不丢）
// 非法 JSON 的负载降级为 JSON 字符串嵌入，保证信封本身可序列化
func (q *JobQueue) PublishDeadRaw(raw []byte, cause error) error {
	if !json.Valid(raw) {
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			return fmt.Errorf("marshal dead letter payload failed: %w", err)
		}
		raw = quoted
	}
	envelope := DeadLetter{Job: raw}
	if cause != nil {
		envelope.Error = cause.Error()
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal dead letter failed: %w", err)
	}
	if err := q.source.Publish(q.cfg.DeadLetter, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Consume 从主队列拉取一次投递
func (q *JobQueue) Consume(timeout, ttr time.Duration) (*Message, error) {
	return q.source.Consume(q.cfg.Name, timeout, ttr)
}

// Ack 确认主队列上的投递
func (q *JobQueue) Ack(msgID string) error {
	return q.source.Ack(q.cfg.Name, msgID)
}

// LmstfySource 基于 pkg/lmstfy 的消息源实现
type LmstfySource struct {
	cli   *lmstfy.Client
	ttl   uint32
	tries uint16
}

// NewLmstfySource 创建 lmstfy 消息源
func NewLmstfySource(cli *lmstfy.Client, ttl uint32, tries uint16) *LmstfySource {
	if tries == 0 {
		tries = 3
	}
	return &LmstfySource{cli: cli, ttl: ttl, tries: tries}
}

// Consume 实现 Source 接口
func (s *LmstfySource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	msg, err := s.cli.Consume(queue, timeout, ttr)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	return &Message{ID: msg.ID, Data: msg.Data}, nil
}

// Ack 实现 Source 接口
func (s *LmstfySource) Ack(queue string, jobID string) error {
	return s.cli.Ack(queue, jobID)
}

// Publish 实现 Source 接口
func (s *LmstfySource) Publish(queue string, data []byte) error {
	return s.cli.Publish(queue, data, s.ttl, s.tries, 0)
}
