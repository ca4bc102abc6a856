package model

import (
	"time"
)

// UserModel 用户模型
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name      string `json:"name" gorm:"not null"`
	AvatarURL string `json:"avatar_url"`

	// 角色与状态
	Role   UserRole   `json:"role" gorm:"default:'fan'"`
	Status UserStatus `json:"status" gorm:"default:'active'"`

	// 钱包信息，最小货币单位（分）
	Balance       int64 `json:"balance" gorm:"default:0"`        // 可提现余额，恒 >= 0
	TotalEarnings int64 `json:"total_earnings" gorm:"default:0"` // 累计收益
}

// UserRole 用户角色
type UserRole string

const (
	UserRoleFan    UserRole = "fan"    // 粉丝
	UserRoleArtist UserRole = "artist" // 艺术家
)

// UserStatus 用户状态
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"   // 正常
	UserStatusDisabled UserStatus = "disabled" // 已禁用
)

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
