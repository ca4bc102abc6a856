package model

import (
	"time"
)

// SongModel 歌曲模型
type SongModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	ArtistId int64  `json:"artist_id" gorm:"not null;index"`
	Title    string `json:"title" gorm:"not null"`
	Genre    string `json:"genre"`
	CoverURL string `json:"cover_url"`

	// 可见性
	Visibility SongVisibility `json:"visibility" gorm:"default:'public'"`

	// 统计计数器，只通过原子自增更新
	Plays          int64 `json:"plays" gorm:"default:0"`            // 播放次数
	Tips           int64 `json:"tips" gorm:"default:0"`             // 已完成打赏笔数
	TotalTipAmount int64 `json:"total_tip_amount" gorm:"default:0"` // 打赏总金额，最小货币单位
}

// SongVisibility 歌曲可见性
type SongVisibility string

const (
	SongVisibilityPublic  SongVisibility = "public"  // 公开
	SongVisibilityPrivate SongVisibility = "private" // 私有
)

// TableName 自定义表名
func (SongModel) TableName() string {
	return "song"
}
