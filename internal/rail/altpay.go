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

// AltpayRail 订单/捕获式渠道，创建订单后由外部方捕获资金，结算由webhook驱动
type AltpayRail struct {
	cfg    config.RailConfig
	client *http.Client
}

// NewAltpayRail 创建订单式渠道
func NewAltpayRail(cfg config.RailConfig, client *http.Client) *AltpayRail {
	return &AltpayRail{cfg: cfg, client: client}
}

// Name 渠道名称
func (r *AltpayRail) Name() model.PaymentMethod {
	return model.PaymentMethodAltpay
}

type altpayOrderRequest struct {
	ReferenceId string           `json:"reference_id"`
	Amount      altpayOrderValue `json:"amount"`
}

type altpayOrderValue struct {
	Value        string `json:"value"` // 十进制金额字符串
	CurrencyCode string `json:"currency_code"`
}

type altpayOrderResponse struct {
	Id    string `json:"id"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

// Dispatch 创建外部订单，返回订单ID与审批链接
func (r *AltpayRail) Dispatch(ctx context.Context, tip *model.TipModel) (*Dispatch, error) {
	if r.cfg.Sandbox() {
		ref := "ord_sandbox_" + uuid.NewString()
		logger.Info("Altpay sandbox mode, simulating order %s for tip %d", ref, tip.Id)
		return &Dispatch{
			ExternalRef: ref,
			ApprovalURL: r.cfg.BaseURL + "/sandbox/approve/" + ref,
			Simulated:   true,
		}, nil
	}

	payload, err := json.Marshal(altpayOrderRequest{
		ReferenceId: IdempotencyKey(tip.Id),
		Amount: altpayOrderValue{
			Value:        model.FormatAmount(tip.Amount),
			CurrencyCode: "USD",
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.Secret)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("altpay create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("altpay create order: unexpected status %d", resp.StatusCode)
	}

	var order altpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("altpay decode order: %w", err)
	}

	d := &Dispatch{ExternalRef: order.Id}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			d.ApprovalURL = link.Href
			break
		}
	}
	return d, nil
}
