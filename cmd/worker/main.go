package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/indexer"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/search"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/worker"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/config"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/lmstfy"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  Plan Index Worker Starting...")
	log.Println("========================================")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config validation failed: %v", err)
	}
	log.Printf("Config loaded: %s, env: %s, log_level: %s\n", cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)

	// 2. 初始化 Logger
	zapLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// 3. 搜索索引（Elasticsearch）
	searchStore, err := search.NewElastic(cfg.Elastic, indexer.PlanRelations())
	if err != nil {
		log.Fatalf("Failed to create search store: %v", err)
	}
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := searchStore.EnsureIndex(ensureCtx); err != nil {
		ensureCancel()
		log.Fatalf("Failed to ensure index: %v", err)
	}
	ensureCancel()
	log.Printf("Index ready: %s (alias: %s)\n", cfg.Elastic.Index, cfg.Elastic.Alias)

	// 4. 任务队列客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}
	source := queue.NewLmstfySource(lmstfyClient, cfg.Queue.TTL, cfg.Queue.Tries)
	jobQueue := queue.NewJobQueue(source, cfg.Queue)

	// 5. 创建 Manager 并启动
	planIndexer := indexer.NewIndexer(searchStore, zapLogger)
	manager, err := worker.NewManagerInstance(cfg.Worker, jobQueue, planIndexer, zapLogger)
	if err != nil {
		log.Fatalf("Failed to create worker manager: %v", err)
	}

	go func() {
		if err := manager.Start(); err != nil {
			log.Fatalf("Failed to start worker manager: %v", err)
		}
	}()

	log.Printf("Worker started with %d consumers on queue %q. Press Ctrl+C to shutdown.\n",
		cfg.Worker.Consumers, cfg.Queue.Name)

	// 6. 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v, shutting down...\n", sig)

	// 7. 优雅关闭
	manager.Shutdown()

	log.Println("Worker exited gracefully")
}
