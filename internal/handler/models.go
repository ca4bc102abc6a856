package handler

import (
	"time"

	"github.com/blues/mts/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// NewPagination 创建分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 打赏相关请求模型

// CreateTipRequest 创建打赏请求
type CreateTipRequest struct {
	ArtistId      int64  `json:"artistId" binding:"required"`
	SongId        *int64 `json:"songId"`
	Amount        string `json:"amount" binding:"required"` // 十进制金额字符串，两位小数
	Message       string `json:"message"`
	IsAnonymous   bool   `json:"isAnonymous"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// ReactRequest 艺术家回应请求
type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// 打赏相关响应模型

// TipResponse 打赏响应模型
type TipResponse struct {
	Id            int64      `json:"id"`
	FanId         *int64     `json:"fanId,omitempty"` // 匿名打赏对外隐藏
	ArtistId      int64      `json:"artistId"`
	SongId        *int64     `json:"songId,omitempty"`
	Amount        string     `json:"amount"`
	Message       string     `json:"message,omitempty"`
	Reaction      string     `json:"reaction,omitempty"`
	IsAnonymous   bool       `json:"isAnonymous"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

// ToTipResponse 转换打赏响应，callerId为打赏者本人时不隐藏身份
func ToTipResponse(tip *model.TipModel, callerId int64) TipResponse {
	resp := TipResponse{
		Id:            tip.Id,
		ArtistId:      tip.ArtistId,
		SongId:        tip.SongId,
		Amount:        model.FormatAmount(tip.Amount),
		Message:       tip.Message,
		Reaction:      tip.Reaction,
		IsAnonymous:   tip.IsAnonymous,
		PaymentMethod: string(tip.PaymentMethod),
		Status:        string(tip.Status),
		CreatedAt:     tip.CreatedAt,
		SettledAt:     tip.SettledAt,
	}
	if !tip.IsAnonymous || tip.FanId == callerId {
		fanId := tip.FanId
		resp.FanId = &fanId
	}
	return resp
}

// ToTipResponseList 转换打赏响应列表
func ToTipResponseList(tips []model.TipModel, callerId int64) []TipResponse {
	out := make([]TipResponse, 0, len(tips))
	for i := range tips {
		out = append(out, ToTipResponse(&tips[i], callerId))
	}
	return out
}

// CreateTipResponse 创建打赏响应
type CreateTipResponse struct {
	Tip          TipResponse `json:"tip"`
	ClientSecret string      `json:"clientSecret,omitempty"` // cardpay续接信息
	ApprovalURL  string      `json:"approvalUrl,omitempty"`  // altpay审批链接
}

// GetTipsResponse 打赏列表响应
type GetTipsResponse struct {
	Tips       []TipResponse `json:"tips"`
	Pagination Pagination    `json:"pagination"`
}

// 钱包相关响应模型

// LedgerEntryResponse 流水响应模型
type LedgerEntryResponse struct {
	Id           string    `json:"id"`
	TipId        int64     `json:"tipId,omitempty"`
	EntryType    string    `json:"entryType"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balanceAfter"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToLedgerEntryResponseList 转换流水响应列表
func ToLedgerEntryResponseList(entries []model.LedgerEntryModel) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			Id:           e.Id,
			TipId:        e.TipId,
			EntryType:    string(e.EntryType),
			Amount:       model.FormatAmount(e.Amount),
			BalanceAfter: model.FormatAmount(e.BalanceAfter),
			Note:         e.Note,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}

// GetWalletResponse 钱包响应
type GetWalletResponse struct {
	UserId        int64                 `json:"userId"`
	Balance       string                `json:"balance"`
	TotalEarnings string                `json:"totalEarnings"`
	Entries       []LedgerEntryResponse `json:"entries"`
	Pagination    Pagination            `json:"pagination"`
}

// SongTipStats 歌曲打赏统计
type SongTipStats struct {
	SongId         int64  `json:"songId"`
	Title          string `json:"title"`
	Tips           int64  `json:"tips"`
	TotalTipAmount string `json:"totalTipAmount"`
}

// GetSongTipsResponse 歌曲打赏响应
type GetSongTipsResponse struct {
	Stats      SongTipStats  `json:"stats"`
	Records    []TipResponse `json:"records"`
	Pagination Pagination    `json:"pagination"`
}
