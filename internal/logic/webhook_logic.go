package logic

import (
	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/model"
	"github.com/blues/mts/internal/rail"
	"gorm.io/gorm"
)

// WebhookLogic webhook对账处理器
// 验签通过且事件已处理或确认为无关/重复时必须向渠道返回成功，
// 避免渠道无限重试；只有无法验证或格式错误的事件才拒绝。
type WebhookLogic struct {
	db      *gorm.DB
	tips    *TipLogic
	payment config.PaymentConfig
}

// NewWebhookLogic 创建webhook对账处理器
func NewWebhookLogic(db *gorm.DB, tips *TipLogic, payment config.PaymentConfig) *WebhookLogic {
	return &WebhookLogic{db: db, tips: tips, payment: payment}
}

// railSecret 解析渠道名并取其webhook密钥
func (w *WebhookLogic) railSecret(railName string) (model.PaymentMethod, string, error) {
	switch railName {
	case string(model.PaymentMethodCardpay):
		return model.PaymentMethodCardpay, w.payment.Cardpay.WebhookSecret, nil
	case string(model.PaymentMethodAltpay):
		return model.PaymentMethodAltpay, w.payment.Altpay.WebhookSecret, nil
	}
	return "", "", apperr.New(apperr.KindNotFound, "未知的支付渠道")
}

// Handle 处理渠道webhook，body必须是未经解析的原始字节
func (w *WebhookLogic) Handle(railName string, body []byte, signature string) error {
	method, secret, err := w.railSecret(railName)
	if err != nil {
		return err
	}

	// 先验签，失败不产生任何状态变更
	if !rail.VerifySignature(secret, body, signature) {
		logger.Warn("Webhook signature verification failed for rail %s", railName)
		return apperr.New(apperr.KindInvalidSignature, "webhook签名校验失败")
	}

	evt, err := rail.ParseEvent(method, body)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "webhook事件格式错误", err)
	}

	// 未识别的事件类型，确认后忽略
	if !evt.Known || evt.ExternalRef == "" {
		logger.Debug("Ignoring webhook event for rail %s", railName)
		return nil
	}

	// 按渠道引用回查打赏，查不到说明是无关事件，确认即可
	var tip model.TipModel
	if err := w.db.Where("external_ref = ?", evt.ExternalRef).First(&tip).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug("No tip for external ref %s, acknowledging", evt.ExternalRef)
			return nil
		}
		return err
	}

	// 已处于终态，重复投递不重复执行副作用；调用方对该分类按成功确认
	if tip.Status.Terminal() {
		logger.Info("Duplicate webhook delivery for tip %d (status %s), acknowledging", tip.Id, tip.Status)
		return apperr.New(apperr.KindDuplicateEvent, "重复的webhook投递")
	}

	outcome := SettleOutcomeFailure
	if evt.Succeeded {
		outcome = SettleOutcomeSuccess
	}

	if _, err := w.tips.Settle(tip.Id, outcome, evt.SettledAmount); err != nil {
		return err
	}
	return nil
}
