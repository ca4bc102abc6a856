package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mts/internal/logic"
	"github.com/blues/mts/internal/model"
	"github.com/gin-gonic/gin"
)

// TipHandler 打赏处理器
type TipHandler struct {
	tipLogic *logic.TipLogic
}

// NewTipHandler 创建打赏处理器
func NewTipHandler(tipLogic *logic.TipLogic) *TipHandler {
	return &TipHandler{tipLogic: tipLogic}
}

// callerId 取上游网关注入的调用者身份
func callerId(c *gin.Context) (int64, bool) {
	v, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CreateTip 创建打赏
func (h *TipHandler) CreateTip(c *gin.Context) {
	fanId, ok := callerId(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "缺少调用者身份")
		return
	}

	var req CreateTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数不正确")
		return
	}

	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用协调器创建打赏
	result, err := h.tipLogic.CreateTip(c.Request.Context(), fanId, &logic.CreateTipRequest{
		ArtistId:      req.ArtistId,
		SongId:        req.SongId,
		Amount:        amount,
		Message:       req.Message,
		IsAnonymous:   req.IsAnonymous,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "创建打赏成功", CreateTipResponse{
		Tip:          ToTipResponse(result.Tip, fanId),
		ClientSecret: result.ClientSecret,
		ApprovalURL:  result.ApprovalURL,
	})
}

// GetTip 获取打赏详情
func (h *TipHandler) GetTip(c *gin.Context) {
	tipId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的打赏ID")
		return
	}

	caller, _ := callerId(c)
	tip, err := h.tipLogic.GetTip(tipId)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取打赏详情成功", ToTipResponse(tip, caller))
}

// ReactToTip 艺术家回应打赏
func (h *TipHandler) ReactToTip(c *gin.Context) {
	artistId, ok := callerId(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "缺少调用者身份")
		return
	}

	tipId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的打赏ID")
		return
	}

	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数不正确")
		return
	}

	tip, err := h.tipLogic.React(artistId, tipId, req.Emoji)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "回应成功", ToTipResponse(tip, artistId))
}

// RefundTip 退款
func (h *TipHandler) RefundTip(c *gin.Context) {
	caller, ok := callerId(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "缺少调用者身份")
		return
	}

	tipId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的打赏ID")
		return
	}

	tip, err := h.tipLogic.Refund(tipId)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "退款成功", ToTipResponse(tip, caller))
}

// GetUserTips 获取用户打赏记录，role=sent|received
func (h *TipHandler) GetUserTips(c *gin.Context) {
	userId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	caller, _ := callerId(c)

	var tips []model.TipModel
	var total int64
	switch c.DefaultQuery("role", "sent") {
	case "received":
		tips, total, err = h.tipLogic.ListReceivedTips(userId, page, pageSize)
	case "sent":
		tips, total, err = h.tipLogic.ListSentTips(userId, page, pageSize)
	default:
		ErrorResponse(c, http.StatusBadRequest, "无效的role参数")
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取打赏记录成功", GetTipsResponse{
		Tips:       ToTipResponseList(tips, caller),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// GetSongTips 获取歌曲打赏统计与记录
func (h *TipHandler) GetSongTips(c *gin.Context) {
	songId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的歌曲ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	caller, _ := callerId(c)

	song, tips, total, err := h.tipLogic.GetSongTipStats(songId, page, pageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取歌曲打赏统计成功", GetSongTipsResponse{
		Stats: SongTipStats{
			SongId:         song.Id,
			Title:          song.Title,
			Tips:           song.Tips,
			TotalTipAmount: model.FormatAmount(song.TotalTipAmount),
		},
		Records:    ToTipResponseList(tips, caller),
		Pagination: NewPagination(page, pageSize, total),
	})
}
