package logic

import (
	"fmt"
	"testing"

	"github.com/blues/mts/internal/apperr"
	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/model"
	"github.com/blues/mts/internal/rail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	cardpayWebhookSecret = "whsec_cardpay_test"
	altpayWebhookSecret  = "whsec_altpay_test"
)

func newTestWebhookLogic(t *testing.T) (*gorm.DB, *TipLogic, *WebhookLogic) {
	t.Helper()
	db := setupTestDB(t)
	wallet := NewWalletLogic(db)
	tips := NewTipLogic(db, wallet, sandboxRails())
	payment := config.PaymentConfig{
		Cardpay: config.RailConfig{WebhookSecret: cardpayWebhookSecret},
		Altpay:  config.RailConfig{WebhookSecret: altpayWebhookSecret},
	}
	return db, tips, NewWebhookLogic(db, tips, payment)
}

func cardpayEventBody(eventType, ref string, amountReceived int64) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"%s","data":{"object":{"id":"%s","amount_received":%d}}}`,
		eventType, ref, amountReceived))
}

func altpayEventBody(eventType, orderId, value string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"WH-1","event_type":"%s","resource":{"order_id":"%s","amount":{"value":"%s","currency_code":"USD"}}}`,
		eventType, orderId, value))
}

func TestWebhook_CardpaySucceeded(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	song := seedSong(t, db, artist.Id, model.SongVisibilityPublic)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, &song.Id, 2000, model.PaymentMethodCardpay, "pi_wh_1")

	body := cardpayEventBody("payment_intent.succeeded", "pi_wh_1", 2000)
	sig := rail.Sign(cardpayWebhookSecret, body)

	require.NoError(t, wh.Handle("cardpay", body, sig))

	settled, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusCompleted, settled.Status)
	assert.Equal(t, int64(1800), getUser(t, db, artist.Id).Balance)
	assert.Equal(t, int64(1), getSong(t, db, song.Id).Tips)
}

// 场景C：同一成功事件投递两次，第二次确认但不产生第二次入账
func TestWebhook_DuplicateDelivery(t *testing.T) {
	db, _, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	song := seedSong(t, db, artist.Id, model.SongVisibilityPublic)
	seedPendingTip(t, db, fan.Id, artist.Id, &song.Id, 2000, model.PaymentMethodCardpay, "pi_wh_2")

	body := cardpayEventBody("payment_intent.succeeded", "pi_wh_2", 2000)
	sig := rail.Sign(cardpayWebhookSecret, body)

	require.NoError(t, wh.Handle("cardpay", body, sig))

	// 第二次投递归类为重复事件，副作用不重复执行
	err := wh.Handle("cardpay", body, sig)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateEvent, apperr.KindOf(err))

	assert.Equal(t, int64(1800), getUser(t, db, artist.Id).Balance)
	assert.Equal(t, int64(1), getSong(t, db, song.Id).Tips)

	var count int64
	require.NoError(t, db.Model(&model.LedgerEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count) // 入账+抽成各一条，没有第二轮
}

func TestWebhook_InvalidSignature(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodCardpay, "pi_wh_3")

	body := cardpayEventBody("payment_intent.succeeded", "pi_wh_3", 2000)

	err := wh.Handle("cardpay", body, "deadbeef")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidSignature, apperr.KindOf(err))

	// 验签失败不产生任何状态变更
	unchanged, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusPending, unchanged.Status)
	assert.Equal(t, int64(0), getUser(t, db, artist.Id).Balance)
}

func TestWebhook_UnknownCorrelation(t *testing.T) {
	_, _, wh := newTestWebhookLogic(t)

	// 无关事件：查不到对应打赏，确认即可
	body := cardpayEventBody("payment_intent.succeeded", "pi_unknown", 2000)
	sig := rail.Sign(cardpayWebhookSecret, body)
	require.NoError(t, wh.Handle("cardpay", body, sig))
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodCardpay, "pi_wh_4")

	body := cardpayEventBody("payment_intent.created", "pi_wh_4", 0)
	sig := rail.Sign(cardpayWebhookSecret, body)
	require.NoError(t, wh.Handle("cardpay", body, sig))

	unchanged, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusPending, unchanged.Status)
}

func TestWebhook_CardpayFailed(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodCardpay, "pi_wh_5")

	body := cardpayEventBody("payment_intent.payment_failed", "pi_wh_5", 0)
	sig := rail.Sign(cardpayWebhookSecret, body)
	require.NoError(t, wh.Handle("cardpay", body, sig))

	failed, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusFailed, failed.Status)
}

func TestWebhook_UnderpaymentGuard(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodAltpay, "ord_wh_1")

	// 渠道上报15.00，应付20.00，驱动到failed而非completed
	body := altpayEventBody("PAYMENT.CAPTURE.COMPLETED", "ord_wh_1", "15.00")
	sig := rail.Sign(altpayWebhookSecret, body)
	require.NoError(t, wh.Handle("altpay", body, sig))

	failed, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusFailed, failed.Status)
	assert.Equal(t, int64(0), getUser(t, db, artist.Id).Balance)
}

func TestWebhook_ZeroAmountGuard(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodCardpay, "pi_wh_6")

	// 成功事件但上报到账0，与低于应付金额同样处理
	body := cardpayEventBody("payment_intent.succeeded", "pi_wh_6", 0)
	sig := rail.Sign(cardpayWebhookSecret, body)
	require.NoError(t, wh.Handle("cardpay", body, sig))

	failed, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusFailed, failed.Status)
	assert.Equal(t, int64(0), getUser(t, db, artist.Id).Balance)
}

func TestWebhook_AltpaySucceeded(t *testing.T) {
	db, tips, wh := newTestWebhookLogic(t)
	fan := seedUser(t, db, model.UserRoleFan, 0)
	artist := seedUser(t, db, model.UserRoleArtist, 0)
	tip := seedPendingTip(t, db, fan.Id, artist.Id, nil, 2000, model.PaymentMethodAltpay, "ord_wh_2")

	body := altpayEventBody("PAYMENT.CAPTURE.COMPLETED", "ord_wh_2", "20.00")
	sig := rail.Sign(altpayWebhookSecret, body)
	require.NoError(t, wh.Handle("altpay", body, sig))

	settled, err := tips.GetTip(tip.Id)
	require.NoError(t, err)
	assert.Equal(t, model.TipStatusCompleted, settled.Status)
	assert.Equal(t, int64(2000), settled.SettledAmount)
}

func TestWebhook_UnknownRail(t *testing.T) {
	_, _, wh := newTestWebhookLogic(t)

	err := wh.Handle("bitcoin", []byte("{}"), "sig")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestWebhook_MalformedBody(t *testing.T) {
	_, _, wh := newTestWebhookLogic(t)

	body := []byte("not json")
	sig := rail.Sign(cardpayWebhookSecret, body)
	err := wh.Handle("cardpay", body, sig)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
