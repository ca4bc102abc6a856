package handler

import (
	"net/http"

	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/logic"
	"github.com/gin-gonic/gin"
)

// SignatureHeader webhook签名头
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler webhook处理器
type WebhookHandler struct {
	webhookLogic *logic.WebhookLogic
}

// NewWebhookHandler 创建webhook处理器
func NewWebhookHandler(webhookLogic *logic.WebhookLogic) *WebhookHandler {
	return &WebhookHandler{webhookLogic: webhookLogic}
}

// HandleRailWebhook 处理支付渠道webhook
// 验签需要未经解析的原始请求体，这条路由不做任何结构化预解析。
func (h *WebhookHandler) HandleRailWebhook(c *gin.Context) {
	railName := c.Param("rail")

	body, err := c.GetRawData()
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "读取请求体失败")
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if err := h.webhookLogic.Handle(railName, body, signature); err != nil {
		// 重复投递向渠道确认成功，避免无限重试
		if !apperr.Is(err, apperr.KindDuplicateEvent) {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}
