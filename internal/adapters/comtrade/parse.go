package comtrade

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/tradeflow/internal/domain/model"
)

// Response column names.
const (
	ColReporter  = "Reporter Code"
	ColPartner   = "Partner Code"
	ColYear      = "Year"
	ColCommodity = "Commodity Code"
	ColFlow      = "Trade Flow Code"
	ColValue     = "Trade Value (US$)"
)

var requiredColumns = []string{ColReporter, ColPartner, ColYear, ColCommodity, ColFlow, ColValue}

// ParseCSV reads a Comtrade CSV answer. Columns are located by header name;
// extra columns are ignored. An empty body yields no facts.
func ParseCSV(r io.Reader) ([]model.TradeFact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrParse, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrParse, name)
		}
	}

	var facts []model.TradeFact
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return facts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
		}
		f, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
		}
		facts = append(facts, f)
	}
}

func parseRow(rec []string, col map[string]int) (model.TradeFact, error) {
	get := func(name string) string {
		if i := col[name]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var f model.TradeFact
	var err error
	if f.Reporter, err = strconv.Atoi(get(ColReporter)); err != nil {
		return f, fmt.Errorf("%s: %w", ColReporter, err)
	}
	if f.Partner, err = strconv.Atoi(get(ColPartner)); err != nil {
		return f, fmt.Errorf("%s: %w", ColPartner, err)
	}
	if f.Year, err = strconv.Atoi(get(ColYear)); err != nil {
		return f, fmt.Errorf("%s: %w", ColYear, err)
	}
	flow, err := strconv.Atoi(get(ColFlow))
	if err != nil {
		return f, fmt.Errorf("%s: %w", ColFlow, err)
	}
	f.Flow = model.Flow(flow)
	if f.Value, err = strconv.ParseFloat(get(ColValue), 64); err != nil {
		return f, fmt.Errorf("%s: %w", ColValue, err)
	}
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return f, fmt.Errorf("%s: not a finite number", ColValue)
	}
	f.Commodity = get(ColCommodity)
	return f, nil
}
