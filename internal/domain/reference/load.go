package reference

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Reference file names, relative to the directory handed to Load.
const (
	ReporterFile  = "reporterAreas.min.json"
	PartnerFile   = "partnerAreas.min.json"
	CommodityFile = "classificationHS_AG2.min.json"
	CountryFile   = "isoCodes.csv"
)

type resultsDoc struct {
	Results []Entry `json:"results"`
}

// Load reads every reference file from fsys concurrently. Any failure
// fails the whole load; there is no partial result.
func Load(ctx context.Context, fsys fs.FS, opts ...Option) (*Tables, error) {
	var (
		reporters, partners, commodities []Entry
		countries                        []Country
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reporters, err = loadEntries(gctx, fsys, ReporterFile)
		return err
	})
	g.Go(func() (err error) {
		partners, err = loadEntries(gctx, fsys, PartnerFile)
		return err
	})
	g.Go(func() (err error) {
		commodities, err = loadEntries(gctx, fsys, CommodityFile)
		return err
	})
	g.Go(func() (err error) {
		countries, err = loadCountries(gctx, fsys, CountryFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(reporters, partners, commodities, countries, opts...), nil
}

func loadEntries(ctx context.Context, fsys fs.FS, name string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	var doc resultsDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
	}
	if doc.Results == nil {
		return nil, fmt.Errorf("%w: %s: missing results", ErrMalformed, name)
	}
	return doc.Results, nil
}

func loadCountries(ctx context.Context, fsys fs.FS, name string) ([]Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: header: %w", ErrMalformed, name, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"unCode", "isoNumerical", "name"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrMalformed, name, want)
		}
	}

	var out []Country
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
		}
		out = append(out, Country{
			UNCode:       field(rec, col["unCode"]),
			ISONumerical: field(rec, col["isoNumerical"]),
			Name:         field(rec, col["name"]),
		})
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
