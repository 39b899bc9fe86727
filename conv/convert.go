package conv

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/ericlagergren/decimal"
)

// TokenDecimals is the number of decimals of the native chain token
const TokenDecimals = 18

// ErrNonPositivePrice is returned when a conversion would divide by a zero or negative price
var ErrNonPositivePrice = errors.New("Token price must be greater than zero")

// ErrAmountOutOfRange is returned when a conversion does not fit the decimal context
var ErrAmountOutOfRange = errors.New("Amount out of range")

var zeroRounded decimal.Big

func init() {
	zeroRounded = decimal.Big{}
	zeroRounded.Context = decimal.Context128
	zeroRounded.Context.RoundingMode = decimal.ToZero
	zeroRounded.Quantize(8)
}

// NewDecimalWithPrecision returns a zero value using the 128 bit context
func NewDecimalWithPrecision() *decimal.Big {
	z := zeroRounded
	return &z
}

// CloneToPrecision copies the amount and rounds it to 8 decimals
func CloneToPrecision(amount *decimal.Big) *decimal.Big {
	dec := &decimal.Big{}
	dec.Context = decimal.Context128
	dec.Context.RoundingMode = decimal.ToZero
	dec.Copy(amount)
	dec.Quantize(8)
	return dec
}

// FromFloat converts a configuration value into a decimal without binary noise
func FromFloat(value float64) *decimal.Big {
	dec, ok := NewDecimalWithPrecision().SetString(strconv.FormatFloat(value, 'f', -1, 64))
	if !ok {
		return NewDecimalWithPrecision()
	}
	return dec
}

// FromString parses a decimal string, returning false for invalid input
func FromString(value string) (*decimal.Big, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}
	dec, ok := NewDecimalWithPrecision().SetString(value)
	if !ok || dec.IsNaN(0) || dec.IsInf(0) {
		return nil, false
	}
	return dec, true
}

// TokenAmount computes round((usdAmount * (1 + feeRate)) / price) in whole token units.
// Halves are rounded away from zero.
func TokenAmount(usdAmount, feeRate, price *decimal.Big) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, ErrNonPositivePrice
	}
	total := NewDecimalWithPrecision()
	total.Add(FromFloat(1), feeRate)
	total.Mul(total, usdAmount)
	total.Quo(total, price)
	total.Context.RoundingMode = decimal.ToNearestAway
	total.Quantize(0)
	// Quantize yields NaN instead of an integer once the result has more digits than the context
	if total.IsNaN(0) || total.IsInf(0) || total.Context.Conditions&(decimal.InvalidOperation|decimal.Overflow|decimal.DivisionByZero) != 0 {
		return nil, ErrAmountOutOfRange
	}
	return total.Int(new(big.Int)), nil
}

// TotalWithFee returns usdAmount * (1 + feeRate)
func TotalWithFee(usdAmount, feeRate *decimal.Big) *decimal.Big {
	total := NewDecimalWithPrecision()
	total.Add(FromFloat(1), feeRate)
	return total.Mul(total, usdAmount)
}

// ToBaseUnits scales a whole token amount to its smallest unit (wei)
func ToBaseUnits(amount *big.Int, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(amount, scale)
}

// BigToHex encodes a number as a 0x prefixed quantity
func BigToHex(value *big.Int) string {
	if value == nil || value.Sign() == 0 {
		return "0x0"
	}
	return "0x" + value.Text(16)
}

// HexToBig decodes a 0x prefixed quantity
func HexToBig(value string) (*big.Int, bool) {
	value = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(value), "0x"), "0X")
	if value == "" {
		return big.NewInt(0), true
	}
	return new(big.Int).SetString(value, 16)
}
