package jobs

import (
	"context"
	"sync"
	"time"
)

// LockSweeper удаляет истекшие блокировки слотов
type LockSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// LockSweepJob периодическая очистка таблицы блокировок
// На корректность не влияет: истекшая блокировка игнорируется при чтении
type LockSweepJob struct {
	sweeper  LockSweeper
	interval time.Duration
	logger   Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewLockSweepJob создает задачу очистки
func NewLockSweepJob(sweeper LockSweeper, interval time.Duration, logger Logger) *LockSweepJob {
	return &LockSweepJob{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start запускает очистку в фоне, первый проход сразу
func (j *LockSweepJob) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info("LockSweepJob: disabled")
		return
	}
	j.logger.Info("LockSweepJob: started, interval=%s", j.interval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				j.RunOnce(ctx)
			case <-ctx.Done():
				j.logger.Info("LockSweepJob: context done")
				return
			case <-j.done:
				j.logger.Info("LockSweepJob: stopped")
				return
			}
		}
	}()
}

// RunOnce один проход очистки
func (j *LockSweepJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	removed, err := j.sweeper.Sweep(ctx)
	if err != nil {
		j.logger.Error("LockSweepJob: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		j.logger.Info("LockSweepJob: removed %d expired locks", removed)
	}
}

// Stop останавливает задачу и ждет завершения текущего прохода
func (j *LockSweepJob) Stop() {
	j.once.Do(func() { close(j.done) })
	j.wg.Wait()
}
