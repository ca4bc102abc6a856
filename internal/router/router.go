package router

import (
	"strconv"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/handler"
	"github.com/blues/mts/internal/logic"
	"github.com/blues/mts/internal/rail"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, rails *rail.Registry, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "music-tipping-service",
		})
	})

	walletLogic := logic.NewWalletLogic(db)
	tipLogic := logic.NewTipLogic(db, walletLogic, rails)
	webhookLogic := logic.NewWebhookLogic(db, tipLogic, cfg.Payment)

	tipHandler := handler.NewTipHandler(tipLogic)
	walletHandler := handler.NewWalletHandler(walletLogic)
	webhookHandler := handler.NewWebhookHandler(webhookLogic)

	// API版本组，身份由上游网关认证后注入
	v1 := r.Group("/api/v1")
	v1.Use(identityMiddleware())
	{
		tips := v1.Group("/tips")
		{
			tips.POST("", tipHandler.CreateTip)
			tips.GET("/:id", tipHandler.GetTip)
			tips.POST("/:id/reaction", tipHandler.ReactToTip)
			tips.POST("/:id/refund", tipHandler.RefundTip)
		}

		users := v1.Group("/users")
		{
			users.GET("/:id/tips", tipHandler.GetUserTips)
			users.GET("/:id/wallet", walletHandler.GetWallet)
		}

		songs := v1.Group("/songs")
		{
			songs.GET("/:id/tips", tipHandler.GetSongTips)
		}
	}

	// webhook路由不经过身份中间件，凭签名验证
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/:rail", webhookHandler.HandleRailWebhook)
	}

	return r
}

// identityMiddleware 读取上游网关注入的调用者身份
// 认证与角色检查由外围系统完成，这里只透传已验证的用户ID。
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if idStr := c.GetHeader("X-User-Id"); idStr != "" {
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				c.Set("userId", id)
			}
		}
		c.Next()
	}
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-User-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
