package worker

import (
	"context"
	"time"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/indexer"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/errorutil"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

// 重试策略固定：上限 5 次，退避 min(2^attempt, 30) 秒
const (
	maxAttempts = 5
	backoffCap  = 30 * time.Second
)

// ConsumerConfig 单个消费者配置
type ConsumerConfig struct {
	ConsumeTimeout time.Duration `mapstructure:"consume_timeout"` // 拉取超时
	TTR            time.Duration `mapstructure:"ttr"`             // Time-To-Run
	ErrorBackoff   time.Duration `mapstructure:"error_backoff"`   // 拉取错误退避
	ProcessTimeout time.Duration `mapstructure:"process_timeout"` // 单个 Job 处理超时
}

// Consumer 消费者：重试/退避/死信状态机
// 每个实例同一时刻只有一个 Job 在处理，退避睡眠只阻塞自身
type Consumer struct {
	queue   *queue.JobQueue
	indexer *indexer.Indexer
	cfg     ConsumerConfig
	logger  logger.Logger
	sleep   func(ctx context.Context, d time.Duration) bool
}

// NewConsumer 创建消费者
func NewConsumer(q *queue.JobQueue, ix *indexer.Indexer, cfg ConsumerConfig, log logger.Logger) *Consumer {
	if cfg.ConsumeTimeout <= 0 {
		cfg.ConsumeTimeout = 3 * time.Second
	}
	if cfg.TTR <= 0 {
		cfg.TTR = 2 * time.Minute
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 30 * time.Second
	}
	return &Consumer{
		queue:   q,
		indexer: ix,
		cfg:     cfg,
		logger:  log,
		sleep:   sleepCtx,
	}
}

// Run 消费循环（单个消费者）
// 一个 Job 完整落地（ack/重发/死信）之后才拉取下一个
func (c *Consumer) Run(ctx context.Context, consumerID int) {
	ctx = context.WithValue(ctx, "consumer_id", consumerID)
	c.logger.Infof(ctx, "[Consumer-%d] Started on queue: %s", consumerID, c.queue.Name())

	for {
		select {
		case <-ctx.Done():
			c.logger.Infof(ctx, "[Consumer-%d] Context cancelled, exiting", consumerID)
			return
		default:
		}

		msg, err := c.queue.Consume(c.cfg.ConsumeTimeout, c.cfg.TTR)
		if err != nil {
			// 容错：网络抖动不退出，只记录日志
			c.logger.Warnf(ctx, "[Consumer-%d] Consume error: %v, retrying...", consumerID, err)
			if !c.sleep(ctx, c.cfg.ErrorBackoff) {
				return
			}
			continue
		}

		// 超时未拉到消息，继续循环
		if msg == nil {
			continue
		}

		c.handle(ctx, consumerID, msg)
	}
}

// handle 处理一次投递，决定 ack / 重发 / 死信
func (c *Consumer) handle(ctx context.Context, consumerID int, msg *queue.Message) {
	j, err := job.Decode(msg.Data)
	if err != nil {
		// 负载不可解析或类型未知：永久失败，首次投递即死信，不重试
		c.logger.Errorf(ctx, "[Consumer-%d] Invalid job %s: %v", consumerID, msg.ID, err)
		if dlqErr := c.queue.PublishDeadRaw(msg.Data, err); dlqErr != nil {
			// 死信发布失败时不 ack，留给 broker TTR 重投
			c.logger.Errorf(ctx, "[Consumer-%d] Dead-letter publish failed: %v", consumerID, dlqErr)
			return
		}
		c.ack(ctx, consumerID, msg)
		return
	}

	ctx = context.WithValue(ctx, "job_type", string(j.Type))
	c.logger.Infof(ctx, "[Consumer-%d] Processing job: type=%s, id=%s, attempt=%d",
		consumerID, j.Type, j.ID, j.Attempt)

	start := time.Now()
	dispatchErr := c.dispatch(ctx, j)
	duration := time.Since(start)

	if dispatchErr == nil {
		c.logger.Infof(ctx, "[Consumer-%d] Job done: id=%s, duration=%v", consumerID, j.ID, duration)
		c.ack(ctx, consumerID, msg)
		return
	}

	if errorutil.IsRetryable(dispatchErr) {
		c.retry(ctx, consumerID, msg, j, dispatchErr)
		return
	}

	// 永久失败：立即死信，等待不会让它变好
	c.logger.Errorf(ctx, "[Consumer-%d] Job failed permanently: id=%s, err=%v", consumerID, j.ID, dispatchErr)
	if dlqErr := c.queue.PublishDead(j, dispatchErr); dlqErr != nil {
		c.logger.Errorf(ctx, "[Consumer-%d] Dead-letter publish failed: %v", consumerID, dlqErr)
		return
	}
	c.ack(ctx, consumerID, msg)
}

// dispatch 按类型派发给扇出索引器（穷举匹配）
func (c *Consumer) dispatch(ctx context.Context, j *job.Job) error {
	procCtx, cancel := context.WithTimeout(ctx, c.cfg.ProcessTimeout)
	defer cancel()

	switch j.Type {
	case job.TypeIndex:
		return c.indexer.IndexPlan(procCtx, j.Doc)
	case job.TypePatch:
		return c.indexer.PatchPlan(procCtx, j.ID, j.PlanDoc, j.ChildOps)
	case job.TypeDelete:
		return c.indexer.DeletePlan(procCtx, j.ID)
	default:
		return errorutil.NonRetriable("unknown job type " + string(j.Type))
	}
}

// retry 瞬时失败路径：退避后以 attempt+1 的副本重新入队，超限则死信
// 先确认重发成功再 ack 原投递，进程崩溃不会丢 Job
func (c *Consumer) retry(ctx context.Context, consumerID int, msg *queue.Message, j *job.Job, cause error) {
	j.Attempt++

	if j.Attempt > maxAttempts {
		c.logger.Errorf(ctx, "[Consumer-%d] Job exhausted retries: id=%s, attempt=%d, err=%v",
			consumerID, j.ID, j.Attempt, cause)
		if dlqErr := c.queue.PublishDead(j, cause); dlqErr != nil {
			c.logger.Errorf(ctx, "[Consumer-%d] Dead-letter publish failed: %v", consumerID, dlqErr)
			return
		}
		c.ack(ctx, consumerID, msg)
		return
	}

	delay := backoff(j.Attempt)
	c.logger.Warnf(ctx, "[Consumer-%d] Transient failure: id=%s, attempt=%d, backoff=%v, err=%v",
		consumerID, j.ID, j.Attempt, delay, cause)

	// 关停途中放弃重发，原投递未 ack，broker 会重投
	if !c.sleep(ctx, delay) {
		return
	}

	if pubErr := c.queue.PublishJob(j); pubErr != nil {
		c.logger.Errorf(ctx, "[Consumer-%d] Republish failed: id=%s, err=%v", consumerID, j.ID, pubErr)
		return
	}
	c.ack(ctx, consumerID, msg)
}

// ack 确认投递，失败只记录（broker 会按 TTR 重投，幂等扇出兜底）
func (c *Consumer) ack(ctx context.Context, consumerID int, msg *queue.Message) {
	if err := c.queue.Ack(msg.ID); err != nil {
		c.logger.Warnf(ctx, "[Consumer-%d] Ack failed for %s: %v", consumerID, msg.ID, err)
	}
}

// backoff 指数退避：min(2^attempt, 30) 秒
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// sleepCtx 可被 Context 打断的睡眠，正常睡完返回 true
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
