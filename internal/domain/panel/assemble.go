package panel

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/okian/tradeflow/internal/domain/combine"
	"github.com/okian/tradeflow/internal/domain/format"
	"github.com/okian/tradeflow/internal/domain/model"
)

// Result is the payload of one panel.
type Result struct {
	Panel   Name                   `json:"panel"`
	Hidden  bool                   `json:"hidden"`
	Title   string                 `json:"title,omitempty"`
	Facts   []model.TradeFact      `json:"facts,omitempty"`
	Records []model.CombinedRecord `json:"records,omitempty"`
	Info    *Info                  `json:"info,omitempty"`
	Years   []int                  `json:"years,omitempty"`
}

// Info is the text of the information box.
type Info struct {
	Subtitle  string `json:"subtitle"`
	Exports   string `json:"exports"`
	Imports   string `json:"imports"`
	Balance   string `json:"balance"`
	Bilateral string `json:"bilateral"`
	Ranking   string `json:"ranking,omitempty"`
}

// Assemble builds the payload of plan from the facts its filter selected.
func Assemble(plan Plan, facts []model.TradeFact, labels Labels) Result {
	res := Result{Panel: plan.Panel, Hidden: plan.Hidden, Title: plan.Title}
	if plan.Hidden {
		return res
	}

	if plan.Combine {
		res.Records = combine.Combine(facts)
		if rec, ok := combine.ByPartner(res.Records, plan.Focus); ok {
			info := Describe(rec, labels)
			res.Info = &info
		}
		return res
	}

	if plan.Panel == YearChart {
		facts = slices.Clone(facts)
		slices.SortStableFunc(facts, func(a, b model.TradeFact) int {
			if c := cmp.Compare(a.Flow, b.Flow); c != 0 {
				return c
			}
			return cmp.Compare(a.Year, b.Year)
		})
	}
	res.Facts = facts
	return res
}

// Describe writes the information box text for rec. The ranking sentence is
// only written for a concrete partner.
func Describe(rec model.CombinedRecord, labels Labels) Info {
	reporter := labels.Reporter(strconv.Itoa(rec.Reporter))
	partner := labels.Partner(strconv.Itoa(rec.Partner))
	hasCommodity := rec.Commodity != "" && rec.Commodity != model.CommodityTotal

	info := Info{
		Subtitle: fmt.Sprintf("%s (reporter) trade in goods with %s (partner) in %d.",
			reporter, partner, rec.Year),
		Exports:   format.Money(rec.ExportVal),
		Imports:   format.Money(rec.ImportVal),
		Balance:   format.Money(rec.BalanceVal),
		Bilateral: format.Money(rec.BilateralVal),
	}
	if hasCommodity {
		info.Subtitle += " " + labels.CommodityName(rec.Commodity)
	}

	if rec.Partner == model.WorldPartner {
		return info
	}
	info.Ranking = fmt.Sprintf(
		"%s was the %s export destination for %s (%s%% of %s exports) and the %s import source for %s (%s%% of %s imports)",
		partner, format.Ordinal(rec.ExportRank), reporter, percentText(rec.ExportPc), reporter,
		format.Ordinal(rec.ImportRank), reporter, percentText(rec.ImportPc), reporter,
	)
	if hasCommodity {
		info.Ranking += " for " + labels.CommodityName(rec.Commodity)
	}
	info.Ranking += fmt.Sprintf(" in %d.", rec.Year)
	return info
}

func percentText(pc *float64) string {
	if pc == nil {
		return format.NoData
	}
	return format.Percent(*pc)
}

// YearSpan lists every year from the earliest to the latest of years, the
// range offered by the year selector.
func YearSpan(years []int) []int {
	if len(years) == 0 {
		return nil
	}
	lo, hi := slices.Min(years), slices.Max(years)
	out := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		out = append(out, y)
	}
	return out
}
