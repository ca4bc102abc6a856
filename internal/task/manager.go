package task

import (
	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/logic"
	"github.com/blues/mts/internal/rail"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	rails     *rail.Registry
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, rails *rail.Registry, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		rails:     rails,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, rails *rail.Registry, cfg *config.Config) {
	manager := NewManager(db, rails, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	walletLogic := logic.NewWalletLogic(m.db)
	tipLogic := logic.NewTipLogic(m.db, walletLogic, m.rails)

	m.registerJob(NewStaleTipSweepJob(m.db, m.config, tipLogic))
	m.registerJob(NewLedgerAuditJob(m.config, walletLogic))
}

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
