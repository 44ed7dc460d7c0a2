package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/indexer"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

// Config Worker 进程配置
type Config struct {
	Name      string         `mapstructure:"name"`
	Consumers int            `mapstructure:"consumers"` // 并行消费者数量
	Consumer  ConsumerConfig `mapstructure:"consumer"`
}

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance Manager 实例
// 并行跑多个消费者提升吞吐，每个消费者各自单 Job 在途，实例间不共享内存状态
type ManagerInstance struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cfg        Config
	queue      *queue.JobQueue
	indexer    *indexer.Indexer
	closing    *atomic.Bool
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	logger     logger.Logger
}

// NewManagerInstance 创建 Manager
func NewManagerInstance(cfg Config, q *queue.JobQueue, ix *indexer.Indexer, log logger.Logger) (Manager, error) {
	if cfg.Consumers <= 0 {
		return nil, fmt.Errorf("at least one consumer is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ManagerInstance{
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		queue:      q,
		indexer:    ix,
		closing:    atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		logger:     log,
	}, nil
}

// Start 启动 Manager（阻塞直到 Shutdown）
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] %s starting with %d consumers, queue=%s, dlq=%s",
		m.cfg.Name, m.cfg.Consumers, m.queue.Name(), m.queue.DeadLetterName())

	// 每个消费者独立 goroutine
	for i := 0; i < m.cfg.Consumers; i++ {
		consumerID := i
		consumer := NewConsumer(m.queue, m.indexer, m.cfg.Consumer, m.logger)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			consumer.Run(m.ctx, consumerID)
		}()
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 阻塞等待退出信号
	<-m.shutdownCh
	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 通知所有消费者停止拉取
		m.cancel()

		// 2. 等待在途 Job 落地、消费者退出
		m.wg.Wait()

		// 3. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}
