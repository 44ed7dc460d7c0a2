package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/job"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/internal/queue"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/config"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/infra/mysql"
	"github.com/Gnana-Shishir-Kumar/INFO-7255/pkg/lmstfy"
)

var (
	configPath = flag.String("config", "./config/worker.yaml", "配置文件路径")
	limit      = flag.Int("limit", 0, "最多读取的死信条数（0 不限制，读到队列为空）")
	archive    = flag.Bool("archive", false, "归档到 MySQL（归档成功才 ack，否则只预览不 ack）")
	requeue    = flag.Bool("requeue", false, "把死信中的 Job 重投主队列（attempt 清零）")
)

func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  DLQDump - 死信队列巡检工具")
	fmt.Println("========================================")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Config loaded: %s, dead letter queue: %s\n", cfg.App.Name, cfg.Queue.DeadLetter)

	// 2. 初始化队列客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		fmt.Printf("❌ Failed to create lmstfy client: %v\n", err)
		os.Exit(1)
	}
	source := queue.NewLmstfySource(lmstfyClient, cfg.Queue.TTL, cfg.Queue.Tries)
	jobQueue := queue.NewJobQueue(source, cfg.Queue)

	// 3. 按需初始化归档 DAO
	var dao *mysql.DeadLetterDAO
	if *archive {
		dao, err = mysql.NewDeadLetterDAO(cfg.MySQL.DSN)
		if err != nil {
			fmt.Printf("❌ Failed to create DeadLetterDAO: %v\n", err)
			os.Exit(1)
		}
		defer dao.Close()
		fmt.Println("✅ MySQL archive initialized")
	}

	// 4. 逐条消费死信
	ctx := context.Background()
	dumped := 0
	archived := 0
	requeued := 0

	for *limit == 0 || dumped < *limit {
		// 短超时：拉空即认为队列读完
		msg, err := source.Consume(cfg.Queue.DeadLetter, 3*time.Second, 30*time.Second)
		if err != nil {
			fmt.Printf("❌ Consume failed: %v\n", err)
			os.Exit(1)
		}
		if msg == nil {
			break
		}
		dumped++

		fmt.Printf("\n[Dead Letter %d] MessageID=%s\n", dumped, msg.ID)
		fmt.Println("----------------------------------------")
		printDeadLetter(msg.Data)

		if *requeue {
			if err := requeueJob(jobQueue, msg.Data); err != nil {
				fmt.Printf("❌ Requeue failed: %v\n", err)
				continue // 不 ack，留在死信队列
			}
			requeued++
			fmt.Println("  ✓ Requeued to main queue")
		}

		if *archive {
			if err := dao.Archive(ctx, cfg.Queue.DeadLetter, msg.ID, lastError(msg.Data), msg.Data); err != nil {
				fmt.Printf("❌ Archive failed: %v\n", err)
				continue // 不 ack，留在死信队列
			}
			archived++
			fmt.Println("  ✓ Archived to MySQL")
		}

		if *archive || *requeue {
			if err := source.Ack(cfg.Queue.DeadLetter, msg.ID); err != nil {
				fmt.Printf("⚠️  Ack failed (message may be redelivered): %v\n", err)
			}
		}
	}

	// 5. 输出汇总
	fmt.Println("\n========================================")
	fmt.Println("  Summary")
	fmt.Println("========================================")
	fmt.Printf("Dumped: %d\n", dumped)
	if *archive {
		fmt.Printf("Archived: %d ✅\n", archived)
	}
	if *requeue {
		fmt.Printf("Requeued: %d ✅\n", requeued)
	}
	if !*archive && !*requeue {
		fmt.Println("Preview mode: no messages were acked")
	}
}

// printDeadLetter 打印死信信封内容（信封解析失败就打印原文）
func printDeadLetter(data []byte) {
	var envelope queue.DeadLetter
	if err := json.Unmarshal(data, &envelope); err != nil {
		fmt.Printf("  Raw (unparseable envelope): %s\n", string(data))
		return
	}

	fmt.Printf("  Error: %s\n", envelope.Error)
	if j, err := job.Decode(envelope.Job); err == nil {
		fmt.Printf("  Job: type=%s, id=%s, attempt=%d\n", j.Type, j.ID, j.Attempt)
	} else {
		fmt.Printf("  Job (raw): %s\n", string(envelope.Job))
	}
}

// lastError 提取信封中的错误信息
func lastError(data []byte) string {
	var envelope queue.DeadLetter
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}

// requeueJob 把死信中的 Job 重投主队列，重试计数清零
func requeueJob(q *queue.JobQueue, data []byte) error {
	var envelope queue.DeadLetter
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unparseable envelope: %w", err)
	}

	j, err := job.Decode(envelope.Job)
	if err != nil {
		return fmt.Errorf("unparseable job: %w", err)
	}

	j.Attempt = 0
	return q.PublishJob(j)
}
