package rail

import (
	"context"

	"github.com/blues/mts/internal/model"
)

// WalletRail 平台钱包渠道，无外部往返，创建与结算在同一逻辑步骤内完成
type WalletRail struct{}

// NewWalletRail 创建钱包渠道
func NewWalletRail() *WalletRail {
	return &WalletRail{}
}

// Name 渠道名称
func (r *WalletRail) Name() model.PaymentMethod {
	return model.PaymentMethodWallet
}

// Dispatch 钱包渠道不产生外部引用，由协调器同步结算
func (r *WalletRail) Dispatch(ctx context.Context, tip *model.TipModel) (*Dispatch, error) {
	return &Dispatch{Immediate: true}, nil
}
