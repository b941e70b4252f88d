package panel_test

import (
	"errors"
	"testing"

	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/panel"
	. "github.com/smartystreets/goconvey/convey"
)

type labels struct{}

func (labels) Reporter(id string) string { return map[string]string{"76": "Brazil"}[id] }
func (labels) Partner(id string) string {
	return map[string]string{"0": "World", "156": "China"}[id]
}
func (labels) CommodityName(code string) string { return map[string]string{"27": "Mineral fuels"}[code] }
func (labels) CountryName(code string) string {
	return map[string]string{"76": "Brazil", "156": "China"}[code]
}

func filters(partner, commodity string) model.Filters {
	return model.Filters{
		Reporter:  model.ID(76),
		Partner:   model.ParseDim(partner),
		Commodity: model.ParseDim(commodity),
		Year:      model.ID(2012),
	}
}

func TestBuild(t *testing.T) {
	Convey("Given no reporter", t, func() {
		for _, name := range panel.Names {
			p, err := panel.Build(name, model.Filters{}, labels{})
			So(err, ShouldBeNil)
			So(p.Hidden, ShouldBeTrue)
		}
	})

	Convey("Given an unknown panel", t, func() {
		_, err := panel.Build("pie", filters("", ""), labels{})
		So(errors.Is(err, panel.ErrUnknownPanel), ShouldBeTrue)
	})

	Convey("Given the info box", t, func() {
		Convey("When only a reporter is selected", func() {
			p, _ := panel.Build(panel.InfoBox, filters("", ""), labels{})

			Convey("Then all years of the world total are fetched", func() {
				So(p.Query.Signature(), ShouldEqual, "r=76&p=0&ps=all&cc=TOTAL")
				So(p.Filter.Partner.Is("0"), ShouldBeTrue)
				So(p.Filter.Commodity.Is(model.CommodityTotal), ShouldBeTrue)
				So(p.Combine, ShouldBeTrue)
				So(p.Focus, ShouldEqual, 0)
			})
		})

		Convey("When a partner is selected", func() {
			p, _ := panel.Build(panel.InfoBox, filters("156", ""), labels{})

			Convey("Then every partner of the year is fetched and World stays in the data", func() {
				So(p.Query.Signature(), ShouldEqual, "r=76&p=all&ps=2012&cc=TOTAL")
				So(p.Filter.Partner.IsSet(), ShouldBeFalse)
				So(p.Focus, ShouldEqual, 156)
			})
		})

		Convey("When a commodity is selected", func() {
			p, _ := panel.Build(panel.InfoBox, filters("", "27"), labels{})

			Convey("Then the commodity narrows both query and filter", func() {
				So(p.Query.Signature(), ShouldEqual, "r=76&p=all&ps=2012&cc=27")
				So(p.Filter.Commodity.Is("27"), ShouldBeTrue)
			})
		})
	})

	Convey("Given the top import sources", t, func() {
		Convey("When only a reporter is selected", func() {
			p, _ := panel.Build(panel.TopImportSources, filters("", ""), labels{})

			Convey("Then imports by partner are requested, World excluded", func() {
				So(p.Hidden, ShouldBeFalse)
				So(p.Query.Signature(), ShouldEqual, "r=76&p=all&ps=2012&cc=TOTAL")
				So(p.Filter.Partner.IsAll(), ShouldBeTrue)
				So(p.Filter.Flow, ShouldEqual, model.FlowImports)
				So(p.Limit, ShouldEqual, panel.TopEntries)
				So(p.Title, ShouldEqual, "Top import sources for Brazil in 2012")
			})
		})

		Convey("When a commodity is selected", func() {
			p, _ := panel.Build(panel.TopImportSources, filters("", "27"), labels{})
			So(p.Title, ShouldEqual, "Top import sources of Mineral fuels for Brazil in 2012")
			So(p.Filter.Commodity.Is("27"), ShouldBeTrue)
		})

		Convey("When a partner is selected", func() {
			p, _ := panel.Build(panel.TopImportSources, filters("156", ""), labels{})
			So(p.Hidden, ShouldBeTrue)
		})
	})

	Convey("Given the top commodity panels", t, func() {
		Convey("When a partner is selected", func() {
			imp, _ := panel.Build(panel.TopImportCommodities, filters("156", ""), labels{})
			exp, _ := panel.Build(panel.TopExportCommodities, filters("156", ""), labels{})

			Convey("Then both share one request and differ by flow", func() {
				So(imp.Query.Signature(), ShouldEqual, "r=76&p=156&ps=2012&cc=AG2")
				So(exp.Query.Signature(), ShouldEqual, imp.Query.Signature())
				So(imp.Filter.Flow, ShouldEqual, model.FlowImports)
				So(exp.Filter.Flow, ShouldEqual, model.FlowExports)
				So(imp.Title, ShouldEqual, "Top import commodities in 2012 for Brazil from China.")
				So(exp.Title, ShouldEqual, "Top export commodities in 2012 for Brazil to China.")
			})
		})

		Convey("When a commodity is selected", func() {
			p, _ := panel.Build(panel.TopExportCommodities, filters("", "27"), labels{})
			So(p.Hidden, ShouldBeTrue)
		})
	})

	Convey("Given the year chart", t, func() {
		cases := []struct {
			partner, commodity, sig, title string
		}{
			{"", "", "r=76&p=0&ps=all&cc=TOTAL", "Total imports and Exports of Brazil"},
			{"156", "", "r=76&p=156&ps=all&cc=TOTAL", "Imports and Exports between Brazil and China"},
			{"", "27", "r=76&p=0&ps=all&cc=27", "Imports and Exports of Mineral fuels to/from Brazil"},
			{"156", "27", "r=76&p=156&ps=all&cc=AG2", "Imports and Exports of Mineral fuels between Brazil and China"},
		}
		for _, c := range cases {
			p, err := panel.Build(panel.YearChart, filters(c.partner, c.commodity), labels{})
			So(err, ShouldBeNil)
			So(p.Query.Signature(), ShouldEqual, c.sig)
			So(p.Title, ShouldEqual, c.title)
			So(p.Filter.Year.IsAll(), ShouldBeTrue)
		}

		Convey("Then a selected commodity is filtered out of the partner breakdown", func() {
			p, _ := panel.Build(panel.YearChart, filters("156", "27"), labels{})
			So(p.Filter.Commodity.Is("27"), ShouldBeTrue)
		})
	})
}

func TestAssemble(t *testing.T) {
	Convey("Given combined info box data for a partner", t, func() {
		p, _ := panel.Build(panel.InfoBox, filters("156", ""), labels{})
		facts := []model.TradeFact{
			{Reporter: 76, Partner: 0, Year: 2012, Commodity: "TOTAL", Flow: 1, Value: 100},
			{Reporter: 76, Partner: 0, Year: 2012, Commodity: "TOTAL", Flow: 2, Value: 200},
			{Reporter: 76, Partner: 156, Year: 2012, Commodity: "TOTAL", Flow: 1, Value: 30},
			{Reporter: 76, Partner: 156, Year: 2012, Commodity: "TOTAL", Flow: 2, Value: 60},
		}

		res := panel.Assemble(p, facts, labels{})

		Convey("Then the focused partner is described with its ranking", func() {
			So(res.Info, ShouldNotBeNil)
			So(res.Info.Subtitle, ShouldEqual, "Brazil (reporter) trade in goods with China (partner) in 2012.")
			So(res.Info.Bilateral, ShouldEqual, "$90")
			So(res.Info.Ranking, ShouldEqual,
				"China was the 1st export destination for Brazil (30.0% of Brazil exports) and the 1st import source for Brazil (30.0% of Brazil imports) in 2012.")
			So(len(res.Records), ShouldEqual, 2)
		})
	})

	Convey("Given the World record", t, func() {
		info := panel.Describe(model.CombinedRecord{Reporter: 76, Partner: 0, Year: 2012, Commodity: "27", ImportVal: 2e9}, labels{})

		Convey("Then no ranking is written and the commodity is named", func() {
			So(info.Ranking, ShouldBeEmpty)
			So(info.Subtitle, ShouldEndWith, "in 2012. Mineral fuels")
			So(info.Imports, ShouldEqual, "$2 bn")
		})
	})

	Convey("Given year chart facts", t, func() {
		p, _ := panel.Build(panel.YearChart, filters("", ""), labels{})
		facts := []model.TradeFact{
			{Reporter: 76, Year: 2012, Commodity: "TOTAL", Flow: 2, Value: 9},
			{Reporter: 76, Year: 2010, Commodity: "TOTAL", Flow: 1, Value: 8},
			{Reporter: 76, Year: 2008, Commodity: "TOTAL", Flow: 1, Value: 7},
		}

		res := panel.Assemble(p, facts, labels{})

		Convey("Then facts are ordered by flow then year", func() {
			So(res.Facts[0].Year, ShouldEqual, 2008)
			So(res.Facts[1].Year, ShouldEqual, 2010)
			So(res.Facts[2].Flow, ShouldEqual, model.FlowExports)
		})
	})

	Convey("Given the years that hold data", t, func() {
		Convey("Then the span fills the gaps", func() {
			So(panel.YearSpan([]int{2012, 2008, 2010}), ShouldResemble, []int{2008, 2009, 2010, 2011, 2012})
			So(panel.YearSpan([]int{2011}), ShouldResemble, []int{2011})
			So(panel.YearSpan(nil), ShouldBeNil)
		})
	})

	Convey("Given a hidden plan", t, func() {
		res := panel.Assemble(panel.Plan{Panel: panel.TopImportSources, Hidden: true}, nil, labels{})
		So(res.Hidden, ShouldBeTrue)
		So(res.Facts, ShouldBeNil)
	})
}
