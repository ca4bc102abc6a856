package main

import (
	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/database"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/rail"
	"github.com/blues/mts/internal/router"
	"github.com/blues/mts/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化支付渠道
	rails := rail.NewRegistry(cfg.Payment)
	if cfg.Payment.Cardpay.Sandbox() {
		logger.Warn("Cardpay credentials not configured, running in sandbox mode")
	}
	if cfg.Payment.Altpay.Sandbox() {
		logger.Warn("Altpay credentials not configured, running in sandbox mode")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, rails, cfg)

	// 启动定时任务
	task.Start(db, rails, cfg)

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
