package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	planhandler "github.com/Gnana-Shishir-Kumar/INFO-7255/internal/server/handlers/plan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/server/routers"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/service/svplan"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/store"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/config"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/jwks"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/lmstfy"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/logger"
)

var (
	configPath = flag.String("config", "./config/apiserver.yaml", "配置文件路径")
)

func main() {
	flag.Parse()

	log.Println("========================================")
	log.Println("  Plan API Server Starting...")
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

	// 3. 系统记录存储（Redis）
	planStore, err := store.NewRedisStore(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to create plan store: %v", err)
	}
	defer planStore.Close()

	// 4. 任务队列客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		log.Fatalf("Failed to create lmstfy client: %v", err)
	}
	source := queue.NewLmstfySource(lmstfyClient, cfg.Queue.TTL, cfg.Queue.Tries)
	jobQueue := queue.NewJobQueue(source, cfg.Queue)

	// 5. 服务与路由
	planService := svplan.NewPlanService(planStore, jobQueue, zapLogger)
	planHandler := planhandler.NewPlanHandler(planService)
	keys := jwks.NewCache(cfg.JWKS)
	router := routers.SetupRoutes(planHandler, cfg.Auth, keys, zapLogger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Printf("API server started on :%s. Press Ctrl+C to shutdown.\n", cfg.Server.Port)

	// 6. 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v, shutting down...\n", sig)

	// 7. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v\n", err)
	}

	log.Println("API server exited gracefully")
}
