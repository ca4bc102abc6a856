package logic

import (
	"testing"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/model"
	"github.com/blues/mts/internal/rail"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 每个测试独立的内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.UserModel{},
		&model.SongModel{},
		&model.TipModel{},
		&model.LedgerEntryModel{},
	))
	return db
}

// sandboxRails 无渠道密钥配置，卡/订单渠道进入沙箱模式
func sandboxRails() *rail.Registry {
	return rail.NewRegistry(config.PaymentConfig{})
}

func newTestTipLogic(t *testing.T) (*gorm.DB, *TipLogic, *WalletLogic) {
	t.Helper()
	db := setupTestDB(t)
	wallet := NewWalletLogic(db)
	tips := NewTipLogic(db, wallet, sandboxRails())
	return db, tips, wallet
}

func seedUser(t *testing.T, db *gorm.DB, role model.UserRole, balance int64) *model.UserModel {
	t.Helper()
	user := &model.UserModel{
		Name:    "user",
		Role:    role,
		Status:  model.UserStatusActive,
		Balance: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedSong(t *testing.T, db *gorm.DB, artistId int64, visibility model.SongVisibility) *model.SongModel {
	t.Helper()
	song := &model.SongModel{
		ArtistId:   artistId,
		Title:      "song",
		Visibility: visibility,
	}
	require.NoError(t, db.Create(song).Error)
	return song
}

func getUser(t *testing.T, db *gorm.DB, id int64) *model.UserModel {
	t.Helper()
	var user model.UserModel
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func getSong(t *testing.T, db *gorm.DB, id int64) *model.SongModel {
	t.Helper()
	var song model.SongModel
	require.NoError(t, db.First(&song, id).Error)
	return &song
}

// seedPendingTip 模拟外部渠道已下发、等待webhook的打赏
func seedPendingTip(t *testing.T, db *gorm.DB, fanId, artistId int64, songId *int64, amount int64, method model.PaymentMethod, externalRef string) *model.TipModel {
	t.Helper()
	tip := &model.TipModel{
		FanId:         fanId,
		ArtistId:      artistId,
		SongId:        songId,
		Amount:        amount,
		PaymentMethod: method,
		Status:        model.TipStatusPending,
	}
	if externalRef != "" {
		tip.ExternalRef = &externalRef
	}
	require.NoError(t, db.Create(tip).Error)
	return tip
}
