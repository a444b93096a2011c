// internal/app/task/broker.go
package task

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/identity"

	"github.com/robfig/cron/v3"
)

const (
	defaultQueueSize = 1000

	// RetentionSchedule 每天凌晨4:30清理过期归档
	RetentionSchedule = "0 30 4 * * *"
)

// Broker 是整个后台任务模块的核心协调者。
// 事务提交之后的副作用（身份服务同步、快照导出）都经由它在 worker 池中执行。
type Broker struct {
	cron     *cron.Cron
	logger   *slog.Logger
	jobQueue chan Job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	identityProvider identity.Provider
	exporter         SnapshotExporter
	archivedPostRepo repository.ArchivedPostRepository
	archivedUserRepo repository.ArchivedUserRepository
	retentionDays    int
}

// NewBroker 是 Broker 的构造函数。exporter 为 nil 时不导出快照，retentionDays <= 0 时不清理归档。
func NewBroker(
	identityProvider identity.Provider,
	exporter SnapshotExporter,
	archivedPostRepo repository.ArchivedPostRepository,
	archivedUserRepo repository.ArchivedUserRepository,
	retentionDays int,
) *Broker {
	workerCount := runtime.NumCPU()
	if workerCount <= 0 {
		workerCount = 4
	}
	return newBroker(workerCount, defaultQueueSize, identityProvider, exporter, archivedPostRepo, archivedUserRepo, retentionDays)
}

func newBroker(
	workerCount, queueSize int,
	identityProvider identity.Provider,
	exporter SnapshotExporter,
	archivedPostRepo repository.ArchivedPostRepository,
	archivedUserRepo repository.ArchivedUserRepository,
	retentionDays int,
) *Broker {
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "task_broker")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.DelayIfStillRunning(cron.DefaultLogger),
		),
	)

	broker := &Broker{
		cron:             c,
		logger:           logger,
		jobQueue:         make(chan Job, queueSize),
		identityProvider: identityProvider,
		exporter:         exporter,
		archivedPostRepo: archivedPostRepo,
		archivedUserRepo: archivedUserRepo,
		retentionDays:    retentionDays,
	}

	broker.startWorkerPool(workerCount)

	return broker
}

// startWorkerPool 启动固定数量的 worker goroutine 来处理任务。
func (b *Broker) startWorkerPool(workerCount int) {
	b.logger.Info("Starting task worker pool", "concurrency", workerCount)

	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for job := range b.jobQueue {
				jobWithWrappers := cron.NewChain(
					NewPanicRecoveryWrapper(b.logger),
					NewLoggingWrapper(b.logger),
				).Then(job)

				b.logger.Info("Worker picked up a job", "worker_id", workerID, "job_name", job.Name())
				jobWithWrappers.Run()
			}
			b.logger.Info("Worker stopped", "worker_id", workerID)
		}()
	}
}

// TryDispatch 非阻塞地把任务放入队列。队列已满或 Broker 已停止时返回 false。
func (b *Broker) TryDispatch(job Job) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Warn("Task broker stopped, dropping job", "job_name", job.Name())
		return false
	}

	select {
	case b.jobQueue <- job:
		return true
	default:
		b.logger.Warn("Job queue is full, dropping job", "job_name", job.Name())
		return false
	}
}

// DispatchIdentitySync 在外部身份服务中停用或启用账号，结果只反映是否成功入队。
func (b *Broker) DispatchIdentitySync(action model.IdentityAction, email string) model.SideEffectOutcome {
	name := fmt.Sprintf("identity.%s", action)
	if email == "" {
		return model.SideEffectOutcome{Name: name, Status: model.SideEffectSkipped, Detail: "用户没有邮箱"}
	}

	job := NewIdentitySyncJob(b.identityProvider, action, email, b.logger)
	if !b.TryDispatch(job) {
		return model.SideEffectOutcome{Name: name, Status: model.SideEffectDropped, Detail: "任务队列已满"}
	}
	b.logger.Info("Successfully queued identity sync job", "action", string(action))
	return model.SideEffectOutcome{Name: name, Status: model.SideEffectQueued}
}

// DispatchSnapshotExport 派发归档用户快照导出任务，未配置导出时什么都不做。
func (b *Broker) DispatchSnapshotExport(archivedUserID uint) bool {
	if b.exporter == nil {
		return false
	}
	job := NewSnapshotExportJob(b.archivedUserRepo, b.exporter, archivedUserID)
	if !b.TryDispatch(job) {
		return false
	}
	b.logger.Info("Successfully queued snapshot export job", slog.Uint64("archived_user_id", uint64(archivedUserID)))
	return true
}

// RegisterCronJobs 注册所有周期性任务。
func (b *Broker) RegisterCronJobs() error {
	b.logger.Info("Registering all periodic jobs...")

	if b.retentionDays > 0 {
		retentionJob := NewArchivedPostRetentionJob(b.archivedPostRepo, b.retentionDays, b.logger)
		if _, err := b.cron.AddJob(RetentionSchedule, retentionJob); err != nil {
			b.logger.Error("Failed to add 'ArchivedPostRetentionJob'", slog.Any("error", err))
			return fmt.Errorf("注册归档清理任务失败: %w", err)
		}
		b.logger.Info("-> Successfully registered 'ArchivedPostRetentionJob'", "schedule", "every day at 4:30:00 AM", "retention_days", b.retentionDays)
	} else {
		b.logger.Info("-> Archived post retention disabled")
	}

	b.logger.Info("All periodic jobs registered.")
	return nil
}

// Start 启动 cron 调度器。
func (b *Broker) Start() {
	b.logger.Info("Task broker started.")
	b.cron.Start()
}

// Stop 优雅地停止 cron 调度器，并等待队列中已有的任务执行完毕。
func (b *Broker) Stop() {
	b.logger.Info("Stopping task broker...")
	ctx := b.cron.Stop()
	<-ctx.Done()

	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.jobQueue)
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Task broker gracefully stopped.")
}
