package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/logger"
	"github.com/blues/mts/internal/model"
	"github.com/blues/mts/internal/rail"
	"gorm.io/gorm"
)

// SettleOutcome 结算结果
type SettleOutcome string

const (
	SettleOutcomeSuccess SettleOutcome = "success"
	SettleOutcomeFailure SettleOutcome = "failure"
)

// errAlreadySettled 状态守卫更新未命中，说明并发结算已先行完成
var errAlreadySettled = errors.New("tip already settled")

// TipLogic 打赏交易协调器
// 打赏状态只由协调器变更，handler层不直接写状态。
type TipLogic struct {
	db     *gorm.DB
	wallet *WalletLogic
	rails  *rail.Registry
}

// NewTipLogic 创建打赏交易协调器
func NewTipLogic(db *gorm.DB, wallet *WalletLogic, rails *rail.Registry) *TipLogic {
	return &TipLogic{db: db, wallet: wallet, rails: rails}
}

// CreateTipRequest 创建打赏请求
type CreateTipRequest struct {
	ArtistId      int64
	SongId        *int64
	Amount        int64 // 最小货币单位
	Message       string
	IsAnonymous   bool
	PaymentMethod model.PaymentMethod
}

// CreateTipResult 创建打赏结果
// 钱包渠道返回时已是终态；外部渠道保持pending并携带客户端需要的续接信息。
type CreateTipResult struct {
	Tip          *model.TipModel
	ClientSecret string
	ApprovalURL  string
}

// CreateTip 创建打赏
// 统一规则：校验通过后先落库pending记录，再接触支付渠道，每次尝试都可审计。
func (t *TipLogic) CreateTip(ctx context.Context, fanId int64, req *CreateTipRequest) (*CreateTipResult, error) {
	if err := t.validateCreateTip(req); err != nil {
		return nil, err
	}

	// 检查粉丝账户
	var fan model.UserModel
	if err := t.db.First(&fan, fanId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "用户不存在")
		}
		return nil, err
	}
	if fan.Status != model.UserStatusActive {
		return nil, apperr.New(apperr.KindInvalidOperation, "账户已被禁用")
	}

	// 检查艺术家
	var artist model.UserModel
	if err := t.db.Where("id = ? AND role = ? AND status = ?",
		req.ArtistId, model.UserRoleArtist, model.UserStatusActive).First(&artist).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "艺术家不存在")
		}
		return nil, err
	}

	// 检查歌曲归属与可见性
	if req.SongId != nil {
		var song model.SongModel
		if err := t.db.Where("id = ? AND artist_id = ? AND visibility = ?",
			*req.SongId, req.ArtistId, model.SongVisibilityPublic).First(&song).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperr.New(apperr.KindNotFound, "歌曲不存在")
			}
			return nil, err
		}
	}

	// 不能给自己打赏
	if fanId == req.ArtistId {
		return nil, apperr.New(apperr.KindInvalidOperation, "不能给自己打赏")
	}

	// 先落库pending记录，再接触渠道
	tip := &model.TipModel{
		FanId:         fanId,
		ArtistId:      req.ArtistId,
		SongId:        req.SongId,
		Amount:        req.Amount,
		Message:       req.Message,
		IsAnonymous:   req.IsAnonymous,
		PaymentMethod: req.PaymentMethod,
		Status:        model.TipStatusPending,
	}
	if err := t.db.Create(tip).Error; err != nil {
		return nil, fmt.Errorf("创建打赏记录失败: %w", err)
	}

	railImpl, err := t.rails.Get(req.PaymentMethod)
	if err != nil {
		t.markFailed(tip.Id)
		return nil, err
	}

	dispatch, err := railImpl.Dispatch(ctx, tip)
	if err != nil {
		logger.Error("Rail %s dispatch failed for tip %d: %v", req.PaymentMethod, tip.Id, err)
		t.markFailed(tip.Id)
		return nil, apperr.Wrap(apperr.KindRailError, "支付渠道调用失败", err)
	}

	// 保存渠道引用，webhook按此回查打赏
	if dispatch.ExternalRef != "" {
		if err := t.db.Model(tip).Update("external_ref", dispatch.ExternalRef).Error; err != nil {
			t.markFailed(tip.Id)
			return nil, fmt.Errorf("保存渠道引用失败: %w", err)
		}
		ref := dispatch.ExternalRef
		tip.ExternalRef = &ref
	}

	switch {
	case dispatch.Immediate:
		// 钱包渠道：创建与结算在同一逻辑步骤内完成
		settled, err := t.Settle(tip.Id, SettleOutcomeSuccess, -1)
		if err != nil {
			return nil, err
		}
		return &CreateTipResult{Tip: settled}, nil
	case dispatch.Simulated:
		// 沙箱模式：走与真实webhook完全相同的结算路径
		settled, err := t.Settle(tip.Id, SettleOutcomeSuccess, tip.Amount)
		if err != nil {
			return nil, err
		}
		return &CreateTipResult{
			Tip:          settled,
			ClientSecret: dispatch.ClientSecret,
			ApprovalURL:  dispatch.ApprovalURL,
		}, nil
	default:
		return &CreateTipResult{
			Tip:          tip,
			ClientSecret: dispatch.ClientSecret,
			ApprovalURL:  dispatch.ApprovalURL,
		}, nil
	}
}

// validateCreateTip 校验打赏请求
func (t *TipLogic) validateCreateTip(req *CreateTipRequest) error {
	if req.Amount < 1 {
		return apperr.New(apperr.KindValidation, "打赏金额必须大于0")
	}
	if utf8.RuneCountInString(req.Message) > 200 {
		return apperr.New(apperr.KindValidation, "留言不能超过200个字符")
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return apperr.New(apperr.KindValidation, "不支持的支付渠道")
	}
	return nil
}

// Settle 结算打赏，幂等
// 已处于终态时直接返回现有状态，不重复执行副作用；
// 四项结算变更（粉丝扣款、艺术家入账、歌曲计数、状态翻转）在一个事务内，
// 任何一步失败整体回滚，打赏保持pending可重试，绝不出现completed但副作用缺失。
func (t *TipLogic) Settle(tipId int64, outcome SettleOutcome, settledAmount int64) (*model.TipModel, error) {
	var tip model.TipModel
	if err := t.db.First(&tip, tipId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "打赏记录不存在")
		}
		return nil, err
	}

	if tip.Status.Terminal() {
		return &tip, nil
	}

	// 渠道到账金额低于应付金额时按失败处理，防止少付
	if outcome == SettleOutcomeSuccess && settledAmount >= 0 && settledAmount < tip.Amount {
		logger.Warn("Tip %d settled amount %d below expected %d, marking failed",
			tip.Id, settledAmount, tip.Amount)
		outcome = SettleOutcomeFailure
	}

	if outcome == SettleOutcomeFailure {
		if err := t.markFailed(tip.Id); err != nil {
			return nil, err
		}
		return t.getTip(tipId)
	}

	if settledAmount < 0 {
		settledAmount = tip.Amount
	}

	err := t.settleSuccess(&tip, settledAmount)
	if err == errAlreadySettled {
		// 并发结算已先行完成，返回现有终态
		return t.getTip(tipId)
	}
	if err == ErrInsufficientBalance {
		// 钱包余额不足：打赏转failed，不产生任何余额/计数变更
		if ferr := t.markFailed(tip.Id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, err
	}

	return t.getTip(tipId)
}

// settleSuccess 成功结算的原子执行体
func (t *TipLogic) settleSuccess(tip *model.TipModel, settledAmount int64) error {
	tx := t.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 状态守卫更新，pending才能翻转，并发结算只有一个能命中
	now := time.Now()
	res := tx.Model(&model.TipModel{}).
		Where("id = ? AND status = ?", tip.Id, model.TipStatusPending).
		Updates(map[string]interface{}{
			"status":         model.TipStatusCompleted,
			"settled_amount": settledAmount,
			"settled_at":     now,
		})
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("更新打赏状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return errAlreadySettled
	}

	// 钱包渠道扣粉丝余额；外部渠道资金来自平台外，不动粉丝余额
	if tip.PaymentMethod == model.PaymentMethodWallet {
		if err := t.wallet.Debit(tx, tip.FanId, tip.Id, tip.Amount, model.LedgerEntryTipDebit, ""); err != nil {
			tx.Rollback()
			return err
		}
	}

	// 艺术家按分成入账，平台抽成单独记账
	share, fee := ArtistShare(tip.Amount)
	if err := t.wallet.Credit(tx, tip.ArtistId, tip.Id, share, model.LedgerEntryTipCredit, ""); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&model.UserModel{}).
		Where("id = ?", tip.ArtistId).
		Update("total_earnings", gorm.Expr("total_earnings + ?", share)).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("更新累计收益失败: %w", err)
	}
	if err := t.wallet.RecordPlatformFee(tx, tip.Id, fee); err != nil {
		tx.Rollback()
		return fmt.Errorf("记录平台抽成失败: %w", err)
	}

	// 歌曲计数按打赏全额累加
	if tip.SongId != nil {
		if err := tx.Model(&model.SongModel{}).
			Where("id = ?", *tip.SongId).
			Updates(map[string]interface{}{
				"tips":             gorm.Expr("tips + ?", 1),
				"total_tip_amount": gorm.Expr("total_tip_amount + ?", tip.Amount),
			}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("更新歌曲计数失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交结算事务失败: %w", err)
	}
	return nil
}

// markFailed 状态守卫地将pending打赏置为failed
func (t *TipLogic) markFailed(tipId int64) error {
	return t.db.Model(&model.TipModel{}).
		Where("id = ? AND status = ?", tipId, model.TipStatusPending).
		Update("status", model.TipStatusFailed).Error
}

// React 艺术家回应打赏
// 只有收到打赏的艺术家可以回应，且打赏必须已完成；重复回应覆盖之前的内容。
func (t *TipLogic) React(artistId, tipId int64, emoji string) (*model.TipModel, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > 10 {
		return nil, apperr.New(apperr.KindValidation, "回应内容需为1-10个字符")
	}

	tip, err := t.getTip(tipId)
	if err != nil {
		return nil, err
	}
	if tip.ArtistId != artistId {
		return nil, apperr.New(apperr.KindInvalidOperation, "只有收到打赏的艺术家才能回应")
	}
	if tip.Status != model.TipStatusCompleted {
		return nil, apperr.New(apperr.KindInvalidOperation, "打赏未完成，无法回应")
	}

	if err := t.db.Model(&model.TipModel{}).
		Where("id = ?", tipId).
		Update("reaction", emoji).Error; err != nil {
		return nil, fmt.Errorf("保存回应失败: %w", err)
	}

	return t.getTip(tipId)
}

// Refund 退款，completed -> refunded
// 反向执行结算副作用：扣回艺术家分成、冲销平台抽成、回退歌曲计数；
// 钱包渠道同时把全额退回粉丝余额，外部渠道的资金退回由渠道自身完成。
func (t *TipLogic) Refund(tipId int64) (*model.TipModel, error) {
	tip, err := t.getTip(tipId)
	if err != nil {
		return nil, err
	}
	if tip.Status == model.TipStatusRefunded {
		return tip, nil
	}
	if tip.Status != model.TipStatusCompleted {
		return nil, apperr.New(apperr.KindInvalidOperation, "只有已完成的打赏才能退款")
	}

	tx := t.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&model.TipModel{}).
		Where("id = ? AND status = ?", tipId, model.TipStatusCompleted).
		Update("status", model.TipStatusRefunded)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新打赏状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return t.getTip(tipId)
	}

	share, fee := ArtistShare(tip.Amount)
	if err := t.wallet.Debit(tx, tip.ArtistId, tip.Id, share, model.LedgerEntryRefundDebit, ""); err != nil {
		tx.Rollback()
		if err == ErrInsufficientBalance {
			return nil, apperr.New(apperr.KindInvalidOperation, "艺术家余额不足，无法退款")
		}
		return nil, err
	}
	if err := tx.Model(&model.UserModel{}).
		Where("id = ?", tip.ArtistId).
		Update("total_earnings", gorm.Expr("total_earnings - ?", share)).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("回退累计收益失败: %w", err)
	}
	if err := t.wallet.RecordPlatformFee(tx, tip.Id, -fee); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("冲销平台抽成失败: %w", err)
	}

	if tip.PaymentMethod == model.PaymentMethodWallet {
		if err := t.wallet.Credit(tx, tip.FanId, tip.Id, tip.Amount, model.LedgerEntryRefundCredit, ""); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if tip.SongId != nil {
		if err := tx.Model(&model.SongModel{}).
			Where("id = ?", *tip.SongId).
			Updates(map[string]interface{}{
				"tips":             gorm.Expr("tips - ?", 1),
				"total_tip_amount": gorm.Expr("total_tip_amount - ?", tip.Amount),
			}).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("回退歌曲计数失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交退款事务失败: %w", err)
	}

	return t.getTip(tipId)
}

// GetTip 获取打赏详情
func (t *TipLogic) GetTip(tipId int64) (*model.TipModel, error) {
	return t.getTip(tipId)
}

func (t *TipLogic) getTip(tipId int64) (*model.TipModel, error) {
	var tip model.TipModel
	if err := t.db.First(&tip, tipId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.KindNotFound, "打赏记录不存在")
		}
		return nil, err
	}
	return &tip, nil
}

// ListSentTips 获取用户发出的打赏
func (t *TipLogic) ListSentTips(fanId int64, page, pageSize int) ([]model.TipModel, int64, error) {
	return t.listTips("fan_id = ?", fanId, page, pageSize)
}

// ListReceivedTips 获取艺术家收到的打赏
func (t *TipLogic) ListReceivedTips(artistId int64, page, pageSize int) ([]model.TipModel, int64, error) {
	return t.listTips("artist_id = ?", artistId, page, pageSize)
}

func (t *TipLogic) listTips(cond string, arg int64, page, pageSize int) ([]model.TipModel, int64, error) {
	var tips []model.TipModel
	var total int64

	if err := t.db.Model(&model.TipModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := t.db.Where(cond, arg).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&tips).Error; err != nil {
		return nil, 0, err
	}

	return tips, total, nil
}

// GetSongTipStats 获取歌曲打赏统计与记录
func (t *TipLogic) GetSongTipStats(songId int64, page, pageSize int) (*model.SongModel, []model.TipModel, int64, error) {
	var song model.SongModel
	if err := t.db.First(&song, songId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, 0, apperr.New(apperr.KindNotFound, "歌曲不存在")
		}
		return nil, nil, 0, err
	}

	var tips []model.TipModel
	var total int64
	if err := t.db.Model(&model.TipModel{}).
		Where("song_id = ? AND status = ?", songId, model.TipStatusCompleted).
		Count(&total).Error; err != nil {
		return nil, nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := t.db.Where("song_id = ? AND status = ?", songId, model.TipStatusCompleted).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&tips).Error; err != nil {
		return nil, nil, 0, err
	}

	return &song, tips, total, nil
}
