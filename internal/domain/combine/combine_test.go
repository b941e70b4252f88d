package combine_test

import (
	"testing"

	"github.com/okian/tradeflow/internal/domain/combine"
	"github.com/okian/tradeflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fact(partner int, flow model.Flow, value float64) model.TradeFact {
	return model.TradeFact{Reporter: 76, Partner: partner, Year: 2012, Commodity: model.CommodityTotal, Flow: flow, Value: value}
}

func TestCombine(t *testing.T) {
	Convey("Given world totals, a paired partner and an import-only partner", t, func() {
		const partnerA, partnerB = 10, 20
		facts := []model.TradeFact{
			fact(0, model.FlowImports, 100),
			fact(0, model.FlowExports, 200),
			fact(partnerA, model.FlowImports, 30),
			fact(partnerA, model.FlowExports, 60),
			fact(partnerB, model.FlowImports, 10),
		}

		out := combine.Combine(facts)

		Convey("Then the paired partner gets one complete record", func() {
			So(len(out), ShouldEqual, 2)
			a := out[0]
			So(a.Partner, ShouldEqual, partnerA)
			So(a.ImportVal, ShouldEqual, 30)
			So(a.ExportVal, ShouldEqual, 60)
			So(a.BilateralVal, ShouldEqual, 90)
			So(a.BalanceVal, ShouldEqual, 30)
			So(*a.ImportPc, ShouldAlmostEqual, 30)
			So(*a.ExportPc, ShouldAlmostEqual, 30)
			So(a.ImportRank, ShouldEqual, 1)
			So(a.ExportRank, ShouldEqual, 1)
		})

		Convey("Then the import-only partner is dropped", func() {
			_, ok := combine.ByPartner(out, partnerB)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the World record closes the list unranked", func() {
			w := out[len(out)-1]
			So(w.Partner, ShouldEqual, model.WorldPartner)
			So(w.BilateralVal, ShouldEqual, 300)
			So(w.BalanceVal, ShouldEqual, 100)
			So(w.ImportRank, ShouldEqual, 0)
			So(w.ExportRank, ShouldEqual, 0)
			So(w.Reporter, ShouldEqual, 76)
		})
	})

	Convey("Given three partners with inverse import and export order", t, func() {
		facts := []model.TradeFact{
			fact(0, model.FlowImports, 90),
			fact(0, model.FlowExports, 90),
			fact(1, model.FlowImports, 50), fact(1, model.FlowExports, 10),
			fact(2, model.FlowImports, 30), fact(2, model.FlowExports, 30),
			fact(3, model.FlowImports, 10), fact(3, model.FlowExports, 50),
		}

		out := combine.Combine(facts)

		Convey("Then the two rankings are independent", func() {
			for partner, want := range map[int][2]int{1: {1, 3}, 2: {2, 2}, 3: {3, 1}} {
				rec, ok := combine.ByPartner(out, partner)
				So(ok, ShouldBeTrue)
				So(rec.ImportRank, ShouldEqual, want[0])
				So(rec.ExportRank, ShouldEqual, want[1])
			}
		})

		Convey("Then records come back in export rank order", func() {
			So(out[0].Partner, ShouldEqual, 3)
			So(out[1].Partner, ShouldEqual, 2)
			So(out[2].Partner, ShouldEqual, 1)
		})
	})

	Convey("Given partners with equal values", t, func() {
		facts := []model.TradeFact{
			fact(7, model.FlowExports, 5), fact(8, model.FlowExports, 5),
			fact(7, model.FlowImports, 5), fact(8, model.FlowImports, 5),
		}

		out := combine.Combine(facts)

		Convey("Then ties keep the export input order", func() {
			So(out[0].Partner, ShouldEqual, 7)
			So(out[0].ImportRank, ShouldEqual, 1)
			So(out[0].ExportRank, ShouldEqual, 1)
			So(out[1].Partner, ShouldEqual, 8)
			So(out[1].ImportRank, ShouldEqual, 2)
		})

		Convey("Then no world totals means no percentages", func() {
			So(out[0].ImportPc, ShouldBeNil)
			So(out[0].ExportPc, ShouldBeNil)
			So(out[len(out)-1].BilateralVal, ShouldEqual, 0)
		})
	})

	Convey("Given equal exports but different imports", t, func() {
		facts := []model.TradeFact{
			fact(7, model.FlowExports, 5), fact(8, model.FlowExports, 5),
			fact(7, model.FlowImports, 1), fact(8, model.FlowImports, 9),
		}

		out := combine.Combine(facts)

		Convey("Then the export tie keeps the input order, not the import order", func() {
			So(out[0].Partner, ShouldEqual, 7)
			So(out[0].ExportRank, ShouldEqual, 1)
			So(out[0].ImportRank, ShouldEqual, 2)
			So(out[1].Partner, ShouldEqual, 8)
			So(out[1].ExportRank, ShouldEqual, 2)
			So(out[1].ImportRank, ShouldEqual, 1)
		})
	})

	Convey("Given an export-only partner", t, func() {
		out := combine.Combine([]model.TradeFact{fact(4, model.FlowExports, 12)})

		Convey("Then only the World record remains", func() {
			So(len(out), ShouldEqual, 1)
			So(out[0].Partner, ShouldEqual, model.WorldPartner)
		})
	})
}
