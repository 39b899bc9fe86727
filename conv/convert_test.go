package conv_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	. "github.com/smartystreets/goconvey/convey"
	"gitlab.com/unchained-card/card_api/conv"
)

func BenchmarkTokenAmount(b *testing.B) {
	usd, fee, price := conv.FromFloat(30), conv.FromFloat(0.05), conv.FromFloat(0.00001)
	for i := 0; i < b.N; i++ {
		_, _ = conv.TokenAmount(usd, fee, price)
	}
}

func TestTokenAmount(t *testing.T) {
	Convey("Given a USD amount, a fee rate and a token price", t, func() {
		Convey("The registration fee is converted into whole tokens", func() {
			amount, err := conv.TokenAmount(conv.FromFloat(30), conv.FromFloat(0.05), conv.FromFloat(0.00001))
			So(err, ShouldBeNil)
			So(amount.String(), ShouldEqual, "3150000")
		})
		Convey("The minimum top-up is converted into whole tokens", func() {
			amount, err := conv.TokenAmount(conv.FromFloat(10), conv.FromFloat(0.05), conv.FromFloat(0.00001))
			So(err, ShouldBeNil)
			So(amount.String(), ShouldEqual, "1050000")
		})
		Convey("Halves are rounded away from zero", func() {
			amount, err := conv.TokenAmount(conv.FromFloat(1), conv.FromFloat(0), conv.FromFloat(0.4))
			So(err, ShouldBeNil)
			So(amount.String(), ShouldEqual, "3")
		})
		Convey("Fractions below a half are rounded down", func() {
			amount, err := conv.TokenAmount(conv.FromFloat(1), conv.FromFloat(0), conv.FromFloat(3))
			So(err, ShouldBeNil)
			So(amount.String(), ShouldEqual, "0")
		})
		Convey("A zero price is rejected", func() {
			_, err := conv.TokenAmount(conv.FromFloat(30), conv.FromFloat(0.05), conv.FromFloat(0))
			So(err, ShouldEqual, conv.ErrNonPositivePrice)
		})
		Convey("Amounts with more digits than the context are rejected", func() {
			for _, usd := range []string{"1e29", "1e30", "1e31", "123456789012345678901234567890"} {
				amount, ok := conv.FromString(usd)
				So(ok, ShouldBeTrue)
				tokens, err := conv.TokenAmount(amount, conv.FromFloat(0.05), conv.FromFloat(0.00001))
				So(err, ShouldEqual, conv.ErrAmountOutOfRange)
				So(tokens, ShouldBeNil)
			}
		})
		Convey("The largest amount that fits is still converted exactly", func() {
			amount, _ := conv.FromString("1e28")
			tokens, err := conv.TokenAmount(amount, conv.FromFloat(0.05), conv.FromFloat(0.00001))
			So(err, ShouldBeNil)
			So(tokens.String(), ShouldEqual, "105"+strings.Repeat("0", 31))
		})
		Convey("A negative price is rejected", func() {
			_, err := conv.TokenAmount(conv.FromFloat(30), conv.FromFloat(0.05), conv.FromFloat(-1))
			So(err, ShouldEqual, conv.ErrNonPositivePrice)
		})
	})
}

func TestToBaseUnits(t *testing.T) {
	assert.Equal(t, conv.ToBaseUnits(big.NewInt(3150000), conv.TokenDecimals).String(), "3150000000000000000000000")
	assert.Equal(t, conv.ToBaseUnits(big.NewInt(1), 0).String(), "1")
}

func TestHexQuantities(t *testing.T) {
	assert.Equal(t, conv.BigToHex(big.NewInt(0)), "0x0")
	assert.Equal(t, conv.BigToHex(big.NewInt(255)), "0xff")

	v, ok := conv.HexToBig("0xff")
	assert.Equal(t, ok, true)
	assert.Equal(t, v.Int64(), int64(255))

	_, ok = conv.HexToBig("0xzz")
	assert.Equal(t, ok, false)
}

func TestFromString(t *testing.T) {
	v, ok := conv.FromString("12.50")
	assert.Equal(t, ok, true)
	assert.Equal(t, v.Cmp(conv.FromFloat(12.5)), 0)

	_, ok = conv.FromString("")
	assert.Equal(t, ok, false)

	_, ok = conv.FromString("abc")
	assert.Equal(t, ok, false)
}
