// Package model contains domain models passed between layers.
package model

import "fmt"

// Reserved area and commodity tokens.
const (
	WorldPartner   = 0       // partner code of the World aggregate
	CommodityTotal = "TOTAL" // all-commodities aggregate
	CommodityAG2   = "AG2"   // query wildcard for every 2-digit code; never stored
	TokenAll       = "all"
)

// Flow is the trade direction of a fact.
type Flow int

const (
	FlowAll     Flow = 0 // both flows; only meaningful in filters
	FlowImports Flow = 1
	FlowExports Flow = 2
)

// Valid reports whether f can be stored on a fact.
func (f Flow) Valid() bool {
	return f == FlowImports || f == FlowExports
}

func (f Flow) String() string {
	switch f {
	case FlowImports:
		return "imports"
	case FlowExports:
		return "exports"
	case FlowAll:
		return "all"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

// TradeFact is one reported value for (reporter, partner, year, commodity, flow).
type TradeFact struct {
	Reporter  int     `json:"reporter"`
	Partner   int     `json:"partner"`
	Year      int     `json:"year"`
	Commodity string  `json:"commodity"`
	Flow      Flow    `json:"flow"`
	Value     float64 `json:"value"`
}

// FactKey is the natural key of a TradeFact.
type FactKey struct {
	Reporter  int
	Partner   int
	Year      int
	Commodity string
	Flow      Flow
}

// Key returns the natural key of f.
func (f TradeFact) Key() FactKey {
	return FactKey{
		Reporter:  f.Reporter,
		Partner:   f.Partner,
		Year:      f.Year,
		Commodity: f.Commodity,
		Flow:      f.Flow,
	}
}

// CombinedRecord pairs the import and export facts of one partner.
// ImportPc and ExportPc are nil when a world total is zero.
// Ranks are 1-based; 0 marks the unranked World record.
type CombinedRecord struct {
	Reporter     int      `json:"reporter"`
	Partner      int      `json:"partner"`
	Commodity    string   `json:"commodity"`
	Year         int      `json:"year"`
	ImportVal    float64  `json:"importVal"`
	ExportVal    float64  `json:"exportVal"`
	BilateralVal float64  `json:"bilateralVal"`
	BalanceVal   float64  `json:"balanceVal"`
	ImportPc     *float64 `json:"importPc,omitempty"`
	ExportPc     *float64 `json:"exportPc,omitempty"`
	ImportRank   int      `json:"importRank"`
	ExportRank   int      `json:"exportRank"`
}
