package rail

import (
	"encoding/json"
	"fmt"

	"github.com/blues/mts/internal/model"
)

// Event 各渠道webhook事件的归一化表示
type Event struct {
	ExternalRef   string // 渠道交易/订单ID
	Succeeded     bool
	Known         bool  // 是否为已识别的事件类型，未识别的确认后忽略
	SettledAmount int64 // 渠道上报到账金额，最小货币单位，-1表示未上报
}

type cardpayEvent struct {
	Id   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			Id             string `json:"id"`
			AmountReceived *int64 `json:"amount_received"` // 缺省与上报0要区分
		} `json:"object"`
	} `json:"data"`
}

type altpayEvent struct {
	Id        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		OrderId string `json:"order_id"`
		Amount  struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
	} `json:"resource"`
}

// ParseEvent 解析已验签的webhook事件体
func ParseEvent(method model.PaymentMethod, body []byte) (*Event, error) {
	switch method {
	case model.PaymentMethodCardpay:
		return parseCardpayEvent(body)
	case model.PaymentMethodAltpay:
		return parseAltpayEvent(body)
	}
	return nil, fmt.Errorf("no webhook events for rail %s", method)
}

func parseCardpayEvent(body []byte) (*Event, error) {
	var evt cardpayEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("parse cardpay event: %w", err)
	}

	e := &Event{ExternalRef: evt.Data.Object.Id, SettledAmount: -1}
	switch evt.Type {
	case "payment_intent.succeeded":
		e.Known = true
		e.Succeeded = true
		// 上报的0也是到账金额，只有字段缺失才算未上报
		if evt.Data.Object.AmountReceived != nil {
			e.SettledAmount = *evt.Data.Object.AmountReceived
		}
	case "payment_intent.payment_failed":
		e.Known = true
	}
	return e, nil
}

func parseAltpayEvent(body []byte) (*Event, error) {
	var evt altpayEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("parse altpay event: %w", err)
	}

	e := &Event{ExternalRef: evt.Resource.OrderId, SettledAmount: -1}
	switch evt.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		e.Known = true
		e.Succeeded = true
		if evt.Resource.Amount.Value != "" {
			minor, err := model.ParseAmount(evt.Resource.Amount.Value)
			if err != nil {
				return nil, fmt.Errorf("parse altpay amount: %w", err)
			}
			e.SettledAmount = minor
		}
	case "PAYMENT.CAPTURE.DENIED":
		e.Known = true
	}
	return e, nil
}
