package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 金额内部统一使用最小货币单位（int64），对外展示保留两位小数。
// 与渠道上报金额的比较必须在最小单位上进行，避免浮点误差。

var errAmountPrecision = errors.New("金额最多保留两位小数")

// ParseAmount 解析十进制金额字符串为最小货币单位
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.New("金额格式不正确")
	}
	return MinorUnits(d)
}

// MinorUnits 十进制金额转最小货币单位
func MinorUnits(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, errAmountPrecision
	}
	return shifted.IntPart(), nil
}

// FormatAmount 最小货币单位转两位小数的展示字符串
func FormatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Shift(-2).StringFixed(2)
}
