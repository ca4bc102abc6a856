package task

import (
	"time"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// LedgerAuditJob 余额对账任务
// 按流水重算用户余额并与钱包余额比对，只记录偏差，不做修复。
// 流水是余额的唯一合法来源：没有对应流水的余额（绕过Adjust直接写库）
// 会在每轮对账中被重复报告，直到补上adjustment流水为止。
type LedgerAuditJob struct {
	config      *config.Config
	walletLogic *logic.WalletLogic
}

// NewLedgerAuditJob 创建对账任务
func NewLedgerAuditJob(cfg *config.Config, walletLogic *logic.WalletLogic) *LedgerAuditJob {
	return &LedgerAuditJob{
		config:      cfg,
		walletLogic: walletLogic,
	}
}

// GetName 获取任务名称
func (j *LedgerAuditJob) GetName() string {
	return "ledger_auditor"
}

// GetSchedule 获取调度配置
func (j *LedgerAuditJob) GetSchedule() gocron.JobDefinition {
	// 对账频率取清理间隔的10倍，默认10分钟
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * 10 * time.Second)
}

// Execute 执行任务
func (j *LedgerAuditJob) Execute() {
	drifts, err := j.walletLogic.AuditBalances()
	if err != nil {
		logger.Error("Ledger audit failed: %v", err)
		return
	}

	if len(drifts) == 0 {
		logger.Debug("Ledger audit passed, no drift detected")
		return
	}

	for _, d := range drifts {
		logger.Warn("Balance drift for user %d: wallet=%d ledger=%d",
			d.UserId, d.WalletBalance, d.LedgerBalance)
	}
}
