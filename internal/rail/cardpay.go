package rail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/model"
	"github.com/google/uuid"
)

// CardpayRail 卡支付渠道，intent + webhook式异步结算
type CardpayRail struct {
	cfg    config.RailConfig
	client *http.Client
}

// NewCardpayRail 创建卡支付渠道
func NewCardpayRail(cfg config.RailConfig, client *http.Client) *CardpayRail {
	return &CardpayRail{cfg: cfg, client: client}
}

// Name 渠道名称
func (r *CardpayRail) Name() model.PaymentMethod {
	return model.PaymentMethodCardpay
}

// IdempotencyKey 以打赏ID派生幂等键，同一打赏重试不会产生两笔扣款
func IdempotencyKey(tipId int64) string {
	return fmt.Sprintf("tip-%d", tipId)
}

type cardpayIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

type cardpayIntentResponse struct {
	Id           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// Dispatch 创建支付意向，返回客户端密钥，结算由webhook驱动
func (r *CardpayRail) Dispatch(ctx context.Context, tip *model.TipModel) (*Dispatch, error) {
	if r.cfg.Sandbox() {
		// 沙箱模式：生成本地引用，按成功webhook同样的路径结算
		ref := "pi_sandbox_" + uuid.NewString()
		logger.Info("Cardpay sandbox mode, simulating intent %s for tip %d", ref, tip.Id)
		return &Dispatch{
			ExternalRef:  ref,
			ClientSecret: ref + "_secret",
			Simulated:    true,
		}, nil
	}

	payload, err := json.Marshal(cardpayIntentRequest{
		Amount:   tip.Amount,
		Currency: "usd",
		Metadata: map[string]string{"tip_id": fmt.Sprintf("%d", tip.Id)},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/payment_intents", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.Secret)
	req.Header.Set("Idempotency-Key", IdempotencyKey(tip.Id))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cardpay create intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("cardpay create intent: unexpected status %d", resp.StatusCode)
	}

	var intent cardpayIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("cardpay decode intent: %w", err)
	}

	return &Dispatch{
		ExternalRef:  intent.Id,
		ClientSecret: intent.ClientSecret,
	}, nil
}
