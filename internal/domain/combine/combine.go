// Package combine pairs import and export facts into ranked per-partner records.
package combine

import (
	"cmp"
	"slices"

	"github.com/okian/tradeflow/internal/domain/model"
)

// Combine turns a reporter's import and export facts into one record per
// partner, followed by the unranked World record.
//
// Partners reported in only one flow produce no record. Percentages are set
// only when both world totals are nonzero. Records are returned in export
// rank order; in each ranking, equal values keep their input order.
func Combine(facts []model.TradeFact) []model.CombinedRecord {
	world := model.CombinedRecord{Partner: model.WorldPartner}
	imports := make(map[int]model.TradeFact)
	exports := make([]model.TradeFact, 0, len(facts)/2)

	for _, f := range facts {
		if f.Partner == model.WorldPartner {
			world.Reporter, world.Commodity, world.Year = f.Reporter, f.Commodity, f.Year
			switch f.Flow {
			case model.FlowImports:
				world.ImportVal = f.Value
			case model.FlowExports:
				world.ExportVal = f.Value
			}
			continue
		}
		switch f.Flow {
		case model.FlowImports:
			imports[f.Partner] = f
		case model.FlowExports:
			exports = append(exports, f)
		}
	}
	world.BilateralVal = world.ImportVal + world.ExportVal
	world.BalanceVal = world.ExportVal - world.ImportVal

	withPc := world.ImportVal != 0 && world.ExportVal != 0
	out := make([]model.CombinedRecord, 0, len(exports)+1)
	for _, exp := range exports {
		imp, ok := imports[exp.Partner]
		if !ok {
			continue
		}
		rec := model.CombinedRecord{
			Reporter:     exp.Reporter,
			Partner:      exp.Partner,
			Commodity:    exp.Commodity,
			Year:         exp.Year,
			ImportVal:    imp.Value,
			ExportVal:    exp.Value,
			BilateralVal: imp.Value + exp.Value,
			BalanceVal:   exp.Value - imp.Value,
		}
		if withPc {
			rec.ImportPc = percent(rec.ImportVal, world.ImportVal)
			rec.ExportPc = percent(rec.ExportVal, world.ExportVal)
		}
		out = append(out, rec)
	}

	// rank imports over indexes so out stays in input order for the export sort
	byImport := make([]int, len(out))
	for i := range byImport {
		byImport[i] = i
	}
	slices.SortStableFunc(byImport, func(a, b int) int {
		return cmp.Compare(out[b].ImportVal, out[a].ImportVal)
	})
	for rank, i := range byImport {
		out[i].ImportRank = rank + 1
	}
	slices.SortStableFunc(out, func(a, b model.CombinedRecord) int {
		return cmp.Compare(b.ExportVal, a.ExportVal)
	})
	for i := range out {
		out[i].ExportRank = i + 1
	}

	return append(out, world)
}

// ByPartner returns the record of partner, if present.
func ByPartner(records []model.CombinedRecord, partner int) (model.CombinedRecord, bool) {
	for _, r := range records {
		if r.Partner == partner {
			return r, true
		}
	}
	return model.CombinedRecord{}, false
}

func percent(part, total float64) *float64 {
	pc := part / total * 100
	return &pc
}
