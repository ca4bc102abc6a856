package rail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blues/mts/internal/config"
	"github.com/blues/mts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry(config.PaymentConfig{})

	for _, method := range []model.PaymentMethod{
		model.PaymentMethodWallet,
		model.PaymentMethodCardpay,
		model.PaymentMethodAltpay,
	} {
		r, err := registry.Get(method)
		require.NoError(t, err)
		assert.Equal(t, method, r.Name())
	}

	_, err := registry.Get("bitcoin")
	assert.Error(t, err)
}

func TestWalletDispatch(t *testing.T) {
	r := NewWalletRail()
	d, err := r.Dispatch(context.Background(), &model.TipModel{Id: 1, Amount: 2000})
	require.NoError(t, err)
	assert.True(t, d.Immediate)
	assert.Empty(t, d.ExternalRef)
}

func TestIdempotencyKey(t *testing.T) {
	// 同一打赏重试派生同一幂等键
	assert.Equal(t, IdempotencyKey(42), IdempotencyKey(42))
	assert.NotEqual(t, IdempotencyKey(42), IdempotencyKey(43))
}

func TestCardpayDispatch_Sandbox(t *testing.T) {
	r := NewCardpayRail(config.RailConfig{}, http.DefaultClient)
	d, err := r.Dispatch(context.Background(), &model.TipModel{Id: 1, Amount: 2000})
	require.NoError(t, err)
	assert.True(t, d.Simulated)
	assert.True(t, strings.HasPrefix(d.ExternalRef, "pi_sandbox_"))
	assert.NotEmpty(t, d.ClientSecret)
}

func TestCardpayDispatch(t *testing.T) {
	var gotIdempotencyKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotIdempotencyKey = req.Header.Get("Idempotency-Key")
		gotAuth = req.Header.Get("Authorization")

		var payload cardpayIntentRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, int64(2000), payload.Amount)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(cardpayIntentResponse{
			Id:           "pi_real_1",
			ClientSecret: "pi_real_1_secret",
			Status:       "requires_payment_method",
		})
	}))
	defer server.Close()

	r := NewCardpayRail(config.RailConfig{BaseURL: server.URL, Secret: "sk_test"}, server.Client())
	d, err := r.Dispatch(context.Background(), &model.TipModel{Id: 7, Amount: 2000})
	require.NoError(t, err)

	assert.Equal(t, "pi_real_1", d.ExternalRef)
	assert.Equal(t, "pi_real_1_secret", d.ClientSecret)
	assert.False(t, d.Simulated)
	assert.Equal(t, "tip-7", gotIdempotencyKey)
	assert.Equal(t, "Bearer sk_test", gotAuth)
}

func TestCardpayDispatch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewCardpayRail(config.RailConfig{BaseURL: server.URL, Secret: "sk_test"}, server.Client())
	_, err := r.Dispatch(context.Background(), &model.TipModel{Id: 8, Amount: 2000})
	assert.Error(t, err)
}

func TestAltpayDispatch_Sandbox(t *testing.T) {
	r := NewAltpayRail(config.RailConfig{}, http.DefaultClient)
	d, err := r.Dispatch(context.Background(), &model.TipModel{Id: 1, Amount: 2000})
	require.NoError(t, err)
	assert.True(t, d.Simulated)
	assert.True(t, strings.HasPrefix(d.ExternalRef, "ord_sandbox_"))
	assert.NotEmpty(t, d.ApprovalURL)
}

func TestAltpayDispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload altpayOrderRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		// 订单金额是十进制字符串
		assert.Equal(t, "20.00", payload.Amount.Value)
		assert.Equal(t, "USD", payload.Amount.CurrencyCode)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "ord_real_1",
			"links": []map[string]string{
				{"rel": "self", "href": "https://altpay.example.com/orders/ord_real_1"},
				{"rel": "approve", "href": "https://altpay.example.com/approve/ord_real_1"},
			},
		})
	}))
	defer server.Close()

	r := NewAltpayRail(config.RailConfig{BaseURL: server.URL, Secret: "sk_test"}, server.Client())
	d, err := r.Dispatch(context.Background(), &model.TipModel{Id: 9, Amount: 2000})
	require.NoError(t, err)

	assert.Equal(t, "ord_real_1", d.ExternalRef)
	assert.Equal(t, "https://altpay.example.com/approve/ord_real_1", d.ApprovalURL)
}
