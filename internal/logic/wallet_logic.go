package logic

import (
	"fmt"

	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArtistSharePercent 艺术家分成比例
const ArtistSharePercent = 90

// ArtistShare 计算艺术家分成与平台抽成，所有结算路径统一使用
func ArtistShare(amount int64) (share int64, fee int64) {
	share = amount * ArtistSharePercent / 100
	return share, amount - share
}

// ErrInsufficientBalance 钱包余额不足
var ErrInsufficientBalance = apperr.New(apperr.KindInvalidOperation, "钱包余额不足")

// WalletLogic 钱包业务逻辑
// 余额只通过原子增减操作变动，禁止读取-计算-写回。
type WalletLogic struct {
	db *gorm.DB
}

// NewWalletLogic 创建钱包业务逻辑
func NewWalletLogic(db *gorm.DB) *WalletLogic {
	return &WalletLogic{db: db}
}

// Credit 原子入账并写流水，在调用方事务内执行
func (w *WalletLogic) Credit(tx *gorm.DB, userId, tipId, amount int64, entryType model.LedgerEntryType, note string) error {
	res := tx.Model(&model.UserModel{}).
		Where("id = ?", userId).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("入账失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "用户不存在")
	}
	return w.writeEntry(tx, userId, tipId, amount, entryType, note)
}

// Debit 原子扣款并写流水，余额充足性检查与扣款在同一条语句内完成
func (w *WalletLogic) Debit(tx *gorm.DB, userId, tipId, amount int64, entryType model.LedgerEntryType, note string) error {
	res := tx.Model(&model.UserModel{}).
		Where("id = ? AND balance >= ?", userId, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("扣款失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return w.writeEntry(tx, userId, tipId, -amount, entryType, note)
}

// RecordPlatformFee 记录平台抽成流水，平台账户不持有余额行
func (w *WalletLogic) RecordPlatformFee(tx *gorm.DB, tipId, amount int64) error {
	entry := &model.LedgerEntryModel{
		Id:        uuid.NewString(),
		UserId:    model.PlatformUserId,
		TipId:     tipId,
		EntryType: model.LedgerEntryPlatformFee,
		Amount:    amount,
	}
	return tx.Create(entry).Error
}

// writeEntry 写流水记录，balance_after取原子更新后的值
func (w *WalletLogic) writeEntry(tx *gorm.DB, userId, tipId, amount int64, entryType model.LedgerEntryType, note string) error {
	var balanceAfter int64
	if err := tx.Model(&model.UserModel{}).
		Select("balance").
		Where("id = ?", userId).
		Scan(&balanceAfter).Error; err != nil {
		return fmt.Errorf("读取余额失败: %w", err)
	}

	entry := &model.LedgerEntryModel{
		Id:           uuid.NewString(),
		UserId:       userId,
		TipId:        tipId,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Note:         note,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("写流水失败: %w", err)
	}
	return nil
}

// Adjust 管理调整，复用同一套原子增减原语
func (w *WalletLogic) Adjust(userId, delta int64, note string) error {
	tx := w.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var err error
	if delta >= 0 {
		err = w.Credit(tx, userId, 0, delta, model.LedgerEntryAdjustment, note)
	} else {
		err = w.Debit(tx, userId, 0, -delta, model.LedgerEntryAdjustment, note)
	}
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetWallet 获取用户余额与流水
func (w *WalletLogic) GetWallet(userId int64, page, pageSize int) (*model.UserModel, []model.LedgerEntryModel, int64, error) {
	var user model.UserModel
	if err := w.db.First(&user, userId).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, 0, apperr.New(apperr.KindNotFound, "用户不存在")
		}
		return nil, nil, 0, err
	}

	var total int64
	if err := w.db.Model(&model.LedgerEntryModel{}).Where("user_id = ?", userId).Count(&total).Error; err != nil {
		return nil, nil, 0, err
	}

	var entries []model.LedgerEntryModel
	offset := (page - 1) * pageSize
	if err := w.db.Where("user_id = ?", userId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, nil, 0, err
	}

	return &user, entries, total, nil
}

// BalanceDrift 余额与流水汇总的偏差
type BalanceDrift struct {
	UserId        int64
	WalletBalance int64
	LedgerBalance int64
}

// AuditBalances 按流水重算每个用户的余额，返回有偏差的用户
// 前提：余额的每一次变动都有流水。初始余额或运营发放必须走Adjust落一条
// adjustment流水，绕过流水直接写balance的余额会被持续报告为偏差。
func (w *WalletLogic) AuditBalances() ([]BalanceDrift, error) {
	type ledgerSum struct {
		UserId int64
		Total  int64
	}

	var sums []ledgerSum
	if err := w.db.Model(&model.LedgerEntryModel{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id <> ?", model.PlatformUserId).
		Group("user_id").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("汇总流水失败: %w", err)
	}

	var drifts []BalanceDrift
	for _, s := range sums {
		var balance int64
		if err := w.db.Model(&model.UserModel{}).
			Select("balance").
			Where("id = ?", s.UserId).
			Scan(&balance).Error; err != nil {
			return nil, err
		}
		if balance != s.Total {
			drifts = append(drifts, BalanceDrift{
				UserId:        s.UserId,
				WalletBalance: balance,
				LedgerBalance: s.Total,
			})
		}
	}
	return drifts, nil
}
