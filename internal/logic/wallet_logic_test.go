package logic

import (
	"context"
	"testing"

	"github.com/blues/mts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletAdjust(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletLogic(db)
	user := seedUser(t, db, model.UserRoleArtist, 1000)

	require.NoError(t, wallet.Adjust(user.Id, 500, "活动奖励"))
	assert.Equal(t, int64(1500), getUser(t, db, user.Id).Balance)

	require.NoError(t, wallet.Adjust(user.Id, -300, "提现"))
	assert.Equal(t, int64(1200), getUser(t, db, user.Id).Balance)

	// 扣减超过余额被拒绝，余额不变
	err := wallet.Adjust(user.Id, -5000, "提现")
	assert.Equal(t, ErrInsufficientBalance, err)
	assert.Equal(t, int64(1200), getUser(t, db, user.Id).Balance)

	// 每次调整一条流水
	var entries []model.LedgerEntryModel
	require.NoError(t, db.Where("user_id = ?", user.Id).Order("created_at").Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.LedgerEntryAdjustment, e.EntryType)
	}
}

func TestWalletGetWallet(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletLogic(db)
	user := seedUser(t, db, model.UserRoleArtist, 1000)

	require.NoError(t, wallet.Adjust(user.Id, 500, ""))

	got, entries, total, err := wallet.GetWallet(user.Id, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Balance)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1500), entries[0].BalanceAfter)
}

// 初始余额通过Adjust发放时，后续结算不会造成虚假偏差
func TestWalletAuditBalances_GrantedBalance(t *testing.T) {
	db, tips, wallet := newTestTipLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)

	require.NoError(t, wallet.Adjust(fan.Id, 5000, "充值"))

	_, err := tips.CreateTip(context.Background(), fan.Id, &CreateTipRequest{
		ArtistId:      artist.Id,
		Amount:        2000,
		PaymentMethod: model.PaymentMethodWallet,
	})
	require.NoError(t, err)

	drifts, err := wallet.AuditBalances()
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestWalletAuditBalances(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletLogic(db)
	user := seedUser(t, db, model.UserRoleArtist, 0)

	require.NoError(t, wallet.Adjust(user.Id, 500, ""))

	// 正常情况无偏差
	drifts, err := wallet.AuditBalances()
	require.NoError(t, err)
	assert.Empty(t, drifts)

	// 绕过流水直接改余额，审计应发现偏差
	require.NoError(t, db.Model(&model.UserModel{}).Where("id = ?", user.Id).Update("balance", 9999).Error)
	drifts, err = wallet.AuditBalances()
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, user.Id, drifts[0].UserId)
	assert.Equal(t, int64(9999), drifts[0].WalletBalance)
	assert.Equal(t, int64(500), drifts[0].LedgerBalance)
}
