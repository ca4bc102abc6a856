package task

import (
	"sync"
	"time"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/logic"
	"github.com/blues/mts/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// StaleTipSweepJob 过期pending打赏清理任务
// 客户端放弃卡/订单支付流程时打赏会一直停留在pending，
// 超过TTL后统一置为failed。钱包渠道同步结算，不会进入这里。
type StaleTipSweepJob struct {
	db       *gorm.DB
	config   *config.Config
	tipLogic *logic.TipLogic
}

// NewStaleTipSweepJob 创建清理任务
func NewStaleTipSweepJob(db *gorm.DB, cfg *config.Config, tipLogic *logic.TipLogic) *StaleTipSweepJob {
	return &StaleTipSweepJob{
		db:       db,
		config:   cfg,
		tipLogic: tipLogic,
	}
}

// GetName 获取任务名称
func (j *StaleTipSweepJob) GetName() string {
	return "stale_tip_sweeper"
}

// GetSchedule 获取调度配置
func (j *StaleTipSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *StaleTipSweepJob) Execute() {
	ttl := time.Duration(j.config.Task.PendingTTL) * time.Second
	cutoff := time.Now().Add(-ttl)

	var stale []model.TipModel
	err := j.db.Where("status = ? AND payment_method <> ? AND created_at < ?",
		model.TipStatusPending, model.PaymentMethodWallet, cutoff).
		Find(&stale).Error
	if err != nil {
		logger.Error("Failed to fetch stale pending tips: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	logger.Info("Sweeping %d stale pending tips", len(stale))

	poolSize := j.config.Task.SweepPoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logger.Error("Failed to create sweep pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, tip := range stale {
		tipId := tip.Id
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			// 结算器的失败路径有状态守卫，与并发到达的webhook不会互踩
			if _, err := j.tipLogic.Settle(tipId, logic.SettleOutcomeFailure, -1); err != nil {
				logger.Error("Failed to sweep tip %d: %v", tipId, err)
			}
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit sweep task for tip %d: %v", tipId, err)
		}
	}
	wg.Wait()
}
