package model

import (
	"time"
)

// LedgerEntryModel 钱包流水记录，每次余额变动一条
type LedgerEntryModel struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserId int64 `json:"user_id" gorm:"not null;index"` // 0 表示平台账户
	TipId  int64 `json:"tip_id" gorm:"index"`           // 关联打赏，管理调整时为0

	EntryType    LedgerEntryType `json:"entry_type" gorm:"not null"`
	Amount       int64           `json:"amount" gorm:"not null"` // 有符号，最小货币单位
	BalanceAfter int64           `json:"balance_after"`
	Note         string          `json:"note"`
}

// LedgerEntryType 流水类型
type LedgerEntryType string

const (
	LedgerEntryTipDebit     LedgerEntryType = "tip_debit"     // 粉丝钱包扣款
	LedgerEntryTipCredit    LedgerEntryType = "tip_credit"    // 艺术家入账
	LedgerEntryPlatformFee  LedgerEntryType = "platform_fee"  // 平台抽成
	LedgerEntryRefundDebit  LedgerEntryType = "refund_debit"  // 退款扣回
	LedgerEntryRefundCredit LedgerEntryType = "refund_credit" // 退款入账
	LedgerEntryAdjustment   LedgerEntryType = "adjustment"    // 管理调整
)

// PlatformUserId 平台账户的保留用户ID
const PlatformUserId int64 = 0

// TableName 自定义表名
func (LedgerEntryModel) TableName() string {
	return "ledger_entry"
}
