package rail

import (
	"context"
	"net/http"
	"time"

	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/model"
)

// Dispatch 渠道下发结果
type Dispatch struct {
	ExternalRef  string // 渠道交易/订单ID
	ClientSecret string // cardpay客户端密钥，由前端完成支付
	ApprovalURL  string // altpay审批链接
	Immediate    bool   // 钱包渠道，同步结算
	Simulated    bool   // 沙箱模拟，按成功webhook处理
}

// PaymentRail 支付渠道适配器
// 每个渠道一个实现，协调器在CreateTip时选择一次，之后不再按字符串分支。
type PaymentRail interface {
	Name() model.PaymentMethod
	Dispatch(ctx context.Context, tip *model.TipModel) (*Dispatch, error)
}

// Registry 渠道注册表
type Registry struct {
	rails map[model.PaymentMethod]PaymentRail
}

// NewRegistry 创建渠道注册表
func NewRegistry(cfg config.PaymentConfig) *Registry {
	client := &http.Client{Timeout: 15 * time.Second}

	r := &Registry{rails: make(map[model.PaymentMethod]PaymentRail)}
	r.register(NewWalletRail())
	r.register(NewCardpayRail(cfg.Cardpay, client))
	r.register(NewAltpayRail(cfg.Altpay, client))
	return r
}

func (r *Registry) register(rail PaymentRail) {
	r.rails[rail.Name()] = rail
}

// Get 根据支付渠道取适配器
func (r *Registry) Get(method model.PaymentMethod) (PaymentRail, error) {
	rail, ok := r.rails[method]
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "不支持的支付渠道")
	}
	return rail, nil
}
