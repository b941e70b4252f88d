package format_test

import (
	"math"
	"testing"

	"github.com/okian/tradeflow/internal/domain/format"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMoney(t *testing.T) {
	Convey("Given values across scales", t, func() {
		cases := []struct {
			in   float64
			want string
		}{
			{0, "0"},
			{431.4, "$431"},
			{12_345, "$12.3 th"},
			{230_000_000, "$230 m"},
			{1_540_000_000, "$1.5 bn"},
			{2_000_000_000, "$2 bn"},
			{1_234_000_000_000, "$1,234 bn"},
			{-45_600_000, "-$45.6 m"},
		}
		for _, c := range cases {
			So(format.Money(c.in), ShouldEqual, c.want)
		}
	})

	Convey("Given a value that is not a number", t, func() {
		So(format.Money(math.NaN()), ShouldEqual, format.NoData)
		So(format.MoneyFull(math.Inf(1)), ShouldEqual, format.NoData)
	})
}

func TestMoneyFull(t *testing.T) {
	Convey("Given exact values", t, func() {
		So(format.MoneyFull(1234567), ShouldEqual, "$1,234,567")
		So(format.MoneyFull(1234.5), ShouldEqual, "$1,234.5")
		So(format.MoneyFull(-10), ShouldEqual, "-$10")
	})
}

func TestPercent(t *testing.T) {
	Convey("Given shares", t, func() {
		So(format.Percent(30), ShouldEqual, "30.0")
		So(format.Percent(12.345), ShouldEqual, "12.3")
	})
}

func TestOrdinal(t *testing.T) {
	Convey("Given ranks", t, func() {
		want := map[int]string{
			1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
			11: "11th", 12: "12th", 13: "13th", 19: "19th",
			21: "21st", 22: "22nd", 23: "23rd", 101: "101st", 111: "111th",
		}
		for n, s := range want {
			So(format.Ordinal(n), ShouldEqual, s)
		}
	})
}
