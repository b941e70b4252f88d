// Package panel derives, for each dashboard panel, the upstream query and
// store filter a user selection needs, and assembles the panel payload from
// the facts that come back.
package panel

import (
	"fmt"
	"slices"

	"github.com/okian/tradeflow/internal/domain/model"
)

// Name identifies a dashboard panel.
type Name string

const (
	InfoBox              Name = "infobox"
	TopImportSources     Name = "top-import-sources"
	TopImportCommodities Name = "top-import-commodities"
	TopExportCommodities Name = "top-export-commodities"
	YearChart            Name = "year-chart"
)

// Names lists every panel in display order.
var Names = []Name{InfoBox, TopImportSources, TopImportCommodities, TopExportCommodities, YearChart}

// TopEntries is the bar length of the top-N panels.
const TopEntries = 20

// Labels resolves codes to display names.
type Labels interface {
	Reporter(id string) string
	Partner(id string) string
	CommodityName(code string) string
	CountryName(unCode string) string
}

// Plan is what one panel needs for one selection.
type Plan struct {
	Panel  Name
	Hidden bool // the panel shows nothing for this selection
	Title  string

	Query  model.Query  // upstream request that must be in the store first
	Filter model.Filter // store filter for the panel data
	Limit  int          // 0 means unbounded

	Combine bool // pair flows per partner before display
	Focus   int  // partner picked from the combined records
}

// Build plans panel name for the selection f. Every panel is hidden until a
// reporter is selected.
func Build(name Name, f model.Filters, labels Labels) (Plan, error) {
	p := Plan{Panel: name}
	if !slices.Contains(Names, name) {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPanel, name)
	}
	if !f.Reporter.IsToken() {
		p.Hidden = true
		return p, nil
	}

	switch name {
	case InfoBox:
		planInfoBox(&p, f)
	case TopImportSources:
		planTopImportSources(&p, f, labels)
	case TopImportCommodities:
		planTopCommodities(&p, f, labels, model.FlowImports)
	case TopExportCommodities:
		planTopCommodities(&p, f, labels, model.FlowExports)
	case YearChart:
		planYearChart(&p, f, labels)
	}
	return p, nil
}

func planInfoBox(p *Plan, f model.Filters) {
	p.Combine = true
	p.Query = model.Query{
		Reporter:  f.Reporter,
		Partner:   model.ID(model.WorldPartner),
		Year:      f.Year,
		Commodity: model.Token(model.CommodityAG2),
	}
	p.Filter = model.Filter{
		Reporter:  f.Reporter,
		Year:      f.Year,
		Commodity: model.Token(model.CommodityTotal),
	}
	if f.HasPartner() {
		// unset partner keeps World in the data; the totals need it
		p.Focus, _ = f.Partner.Int()
	} else {
		p.Filter.Partner = model.ID(model.WorldPartner)
	}

	switch {
	case !f.HasCommodity() && !f.HasPartner():
		p.Query.Commodity = model.Token(model.CommodityTotal)
		p.Query.Year = model.All()
	case !f.HasCommodity():
		p.Query.Partner = model.All()
		p.Query.Commodity = model.Token(model.CommodityTotal)
	default:
		p.Query.Partner = model.All()
		p.Query.Commodity = f.Commodity
		p.Filter.Commodity = f.Commodity
	}
}

func planTopImportSources(p *Plan, f model.Filters, labels Labels) {
	if f.HasPartner() {
		p.Hidden = true
		return
	}
	reporter := labels.Reporter(f.Reporter.String())
	commodity := model.Token(model.CommodityTotal)
	p.Title = fmt.Sprintf("Top import sources for %s in %s", reporter, yearText(f.Year))
	if f.HasCommodity() {
		commodity = f.Commodity
		p.Title = fmt.Sprintf("Top import sources of %s for %s in %s",
			labels.CommodityName(f.Commodity.String()), reporter, yearText(f.Year))
	}
	p.Query = model.Query{
		Reporter:  f.Reporter,
		Partner:   model.All(),
		Year:      f.Year,
		Commodity: commodity,
	}
	p.Filter = p.Query.StoreFilter()
	p.Filter.Flow = model.FlowImports
	p.Limit = TopEntries
}

func planTopCommodities(p *Plan, f model.Filters, labels Labels, flow model.Flow) {
	if f.HasCommodity() {
		p.Hidden = true
		return
	}
	partner := model.All()
	counterpart := "rest of the world"
	if f.HasPartner() {
		partner = f.Partner
		counterpart = labels.Partner(f.Partner.String())
	}
	reporter := labels.Reporter(f.Reporter.String())
	if flow == model.FlowImports {
		p.Title = fmt.Sprintf("Top import commodities in %s for %s from %s.", yearText(f.Year), reporter, counterpart)
	} else {
		p.Title = fmt.Sprintf("Top export commodities in %s for %s to %s.", yearText(f.Year), reporter, counterpart)
	}
	p.Query = model.Query{
		Reporter:  f.Reporter,
		Partner:   partner,
		Year:      f.Year,
		Commodity: model.Token(model.CommodityAG2),
	}
	p.Filter = p.Query.StoreFilter()
	p.Filter.Flow = flow
	p.Limit = TopEntries
}

func planYearChart(p *Plan, f model.Filters, labels Labels) {
	reporter := labels.CountryName(f.Reporter.String())
	p.Query = model.Query{Reporter: f.Reporter, Year: model.All()}

	switch {
	case !f.HasCommodity() && !f.HasPartner():
		p.Title = "Total imports and Exports of " + reporter
		p.Query.Partner = model.ID(model.WorldPartner)
		p.Query.Commodity = model.Token(model.CommodityTotal)
	case !f.HasCommodity():
		p.Title = fmt.Sprintf("Imports and Exports between %s and %s", reporter, labels.CountryName(f.Partner.String()))
		p.Query.Partner = f.Partner
		p.Query.Commodity = model.Token(model.CommodityTotal)
	case !f.HasPartner():
		p.Title = fmt.Sprintf("Imports and Exports of %s to/from %s", labels.CommodityName(f.Commodity.String()), reporter)
		p.Query.Partner = model.ID(model.WorldPartner)
		p.Query.Commodity = f.Commodity
	default:
		// one AG2 request per partner serves every commodity selected with it
		p.Title = fmt.Sprintf("Imports and Exports of %s between %s and %s",
			labels.CommodityName(f.Commodity.String()), reporter, labels.CountryName(f.Partner.String()))
		p.Query.Partner = f.Partner
		p.Query.Commodity = model.Token(model.CommodityAG2)
	}

	p.Filter = p.Query.StoreFilter()
	if f.HasCommodity() {
		p.Filter.Commodity = f.Commodity
	}
}

func yearText(year model.Dim) string {
	if year.IsToken() {
		return year.String()
	}
	return "all years"
}
