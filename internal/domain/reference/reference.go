// Package reference holds the static lookup tables loaded at startup:
// reporter and partner areas, commodity codes, flows and the UN/ISO country
// cross-reference.
package reference

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/tradeflow/pkg/logger"
	"github.com/okian/tradeflow/pkg/metrics"
)

// Unknown is returned by lookups that miss.
const Unknown = "unknown"

// Table names a lookup table.
type Table string

const (
	TableReporters   Table = "reporters"
	TablePartners    Table = "partners"
	TableCommodities Table = "commodities"
	TableFlows       Table = "flows"
)

// Entry is one {id, text} pair of a reference list.
type Entry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Country is one row of the UN/ISO cross-reference.
type Country struct {
	UNCode       string `json:"unCode"`
	ISONumerical string `json:"isoNumerical"`
	Name         string `json:"name"`
}

var flows = []Entry{
	{ID: "1", Text: "imports"},
	{ID: "2", Text: "exports"},
	{ID: "0", Text: "balance"},
}

// Tables is the immutable set of reference tables.
type Tables struct {
	lists     map[Table][]Entry
	byID      map[Table]map[string]Entry
	countries []Country
	byUN      map[string]Country
	byISO     map[string]Country
	logger    logger.Logger
}

// New indexes the given lists. Flows are fixed.
func New(reporters, partners, commodities []Entry, countries []Country, opts ...Option) *Tables {
	t := &Tables{
		lists: map[Table][]Entry{
			TableReporters:   reporters,
			TablePartners:    partners,
			TableCommodities: commodities,
			TableFlows:       flows,
		},
		byID:      make(map[Table]map[string]Entry, 4),
		countries: countries,
		byUN:      make(map[string]Country, len(countries)),
		byISO:     make(map[string]Country, len(countries)),
		logger:    logger.Get().Named("reference"),
	}
	for _, opt := range opts {
		opt(t)
	}

	for table, list := range t.lists {
		idx := make(map[string]Entry, len(list))
		for _, e := range list {
			idx[e.ID] = e
		}
		t.byID[table] = idx
		metrics.UpdateReferenceEntries(string(table), len(list))
	}
	for _, c := range countries {
		t.byUN[c.UNCode] = c
		// later rows overwrite earlier ones
		t.byISO[normalizeNum(c.ISONumerical)] = c
	}
	metrics.UpdateReferenceEntries("countries", len(countries))
	return t
}

// Lookup returns the text of id in table, or Unknown.
func (t *Tables) Lookup(table Table, id string) string {
	if e, ok := t.byID[table][id]; ok {
		return e.Text
	}
	t.logger.Debug(context.Background(), "reference lookup miss",
		logger.String("table", string(table)),
		logger.String("id", id),
	)
	return Unknown
}

// Reporter returns the reporter area name of id.
func (t *Tables) Reporter(id string) string { return t.Lookup(TableReporters, id) }

// Partner returns the partner area name of id.
func (t *Tables) Partner(id string) string { return t.Lookup(TablePartners, id) }

// Commodity returns the full commodity label of code, e.g. "27 - Mineral fuels".
func (t *Tables) Commodity(code string) string { return t.Lookup(TableCommodities, code) }

// Flow returns the flow label of code: imports, exports or balance.
func (t *Tables) Flow(code string) string { return t.Lookup(TableFlows, code) }

// CommodityName returns the commodity label without its leading code.
func (t *Tables) CommodityName(code string) string {
	text := t.Commodity(code)
	if i := strings.Index(text, " - "); i >= 0 {
		return text[i+3:]
	}
	return text
}

// CountryByUN returns the country with the given UN code.
func (t *Tables) CountryByUN(code string) (Country, bool) {
	c, ok := t.byUN[code]
	return c, ok
}

// CountryName returns the name of the country with the given UN code, or Unknown.
func (t *Tables) CountryName(code string) string {
	if c, ok := t.byUN[code]; ok {
		return c.Name
	}
	return Unknown
}

// CountryByISO returns the last country listed with the ISO numeric code.
func (t *Tables) CountryByISO(isoNum string) (Country, bool) {
	c, ok := t.byISO[normalizeNum(isoNum)]
	return c, ok
}

// AreasByISO returns every UN area mapped to the ISO numeric code.
func (t *Tables) AreasByISO(isoNum string) []Country {
	key := normalizeNum(isoNum)
	var out []Country
	for _, c := range t.countries {
		if normalizeNum(c.ISONumerical) == key {
			out = append(out, c)
		}
	}
	return out
}

// Select returns the list of table for selection widgets: the "all"
// reporter and partner entries and the "ALL" and "AG2" commodity entries
// are left out.
func (t *Tables) Select(table Table) []Entry {
	src := t.lists[table]
	out := make([]Entry, 0, len(src))
	for _, e := range src {
		if selectable(table, e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries in table.
func (t *Tables) Len(table Table) int {
	return len(t.lists[table])
}

func selectable(table Table, id string) bool {
	switch table {
	case TableReporters, TablePartners:
		return id != "all"
	case TableCommodities:
		return id != "ALL" && id != "AG2"
	default:
		return true
	}
}

// normalizeNum compares ISO codes numerically so "040" and "40" match.
func normalizeNum(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}
