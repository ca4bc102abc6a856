package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mts/internal/logic"
	"github.com/blues/mts/internal/model"
	"github.com/gin-gonic/gin"
)

// WalletHandler 钱包处理器
type WalletHandler struct {
	walletLogic *logic.WalletLogic
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(walletLogic *logic.WalletLogic) *WalletHandler {
	return &WalletHandler{walletLogic: walletLogic}
}

// GetWallet 获取用户余额与流水
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的用户ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	user, entries, total, err := h.walletLogic.GetWallet(userId, page, pageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取钱包信息成功", GetWalletResponse{
		UserId:        user.Id,
		Balance:       model.FormatAmount(user.Balance),
		TotalEarnings: model.FormatAmount(user.TotalEarnings),
		Entries:       ToLedgerEntryResponseList(entries),
		Pagination:    NewPagination(page, pageSize, total),
	})
}
