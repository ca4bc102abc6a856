package model

import (
	"time"
)

// TipModel 打赏记录
type TipModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 参与方
	FanId    int64  `json:"fan_id" gorm:"not null;index"`
	ArtistId int64  `json:"artist_id" gorm:"not null;index"`
	SongId   *int64 `json:"song_id" gorm:"index"` // 可为空，不关联歌曲的打赏

	// 金额，最小货币单位（分）
	Amount        int64 `json:"amount" gorm:"not null"`
	SettledAmount int64 `json:"settled_amount" gorm:"default:0"` // 渠道实际到账金额

	// 附加信息
	Message     string `json:"message" gorm:"size:200"`
	Reaction    string `json:"reaction" gorm:"size:40"` // 艺术家回应，完成后可写
	IsAnonymous bool   `json:"is_anonymous" gorm:"default:false"`

	// 支付渠道
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"not null"`
	ExternalRef   *string       `json:"external_ref" gorm:"uniqueIndex"` // 渠道交易/订单ID

	// 状态
	Status    TipStatus  `json:"status" gorm:"default:'pending';index"`
	SettledAt *time.Time `json:"settled_at"`
}

// TipStatus 打赏状态
type TipStatus string

const (
	TipStatusPending   TipStatus = "pending"   // 待结算
	TipStatusCompleted TipStatus = "completed" // 已完成
	TipStatusFailed    TipStatus = "failed"    // 失败，终态
	TipStatusRefunded  TipStatus = "refunded"  // 已退款
)

// PaymentMethod 支付渠道
type PaymentMethod string

const (
	PaymentMethodWallet  PaymentMethod = "wallet"  // 平台钱包，同步结算
	PaymentMethodCardpay PaymentMethod = "cardpay" // 卡支付，intent + webhook
	PaymentMethodAltpay  PaymentMethod = "altpay"  // 订单/捕获式，order + webhook
)

// Terminal 是否处于终态
func (s TipStatus) Terminal() bool {
	return s == TipStatusCompleted || s == TipStatusFailed || s == TipStatusRefunded
}

// ValidPaymentMethod 校验支付渠道取值
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodWallet, PaymentMethodCardpay, PaymentMethodAltpay:
		return true
	}
	return false
}

// TableName 自定义表名
func (TipModel) TableName() string {
	return "tip"
}
