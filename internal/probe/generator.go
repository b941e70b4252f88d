package probe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/tradeflow/internal/domain/model"
	"github.com/okian/tradeflow/internal/domain/reference"
	"github.com/okian/tradeflow/pkg/logger"
)

// ErrNoReporters is returned when the reporter table has nothing to pick.
var ErrNoReporters = errors.New("probe: no selectable reporters")

// generateSelections picks cfg.Selections random filters from the reference
// entries. Reporters exclude "all"; partners may be any entry.
func generateSelections(ctx context.Context, cfg *Config, reporters, partners []reference.Entry, stats *Stats) ([]Selection, error) {
	var ids []string
	for _, e := range reporters {
		if e.ID != model.TokenAll {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoReporters
	}
	if len(partners) == 0 {
		partners = []reference.Entry{{ID: model.TokenAll}}
	}
	years := cfg.Years
	if len(years) == 0 {
		years = []int{time.Now().Year() - 1}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	out := make([]Selection, cfg.Selections)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during selection generation: %w", err)
		}
		out[i] = Selection{
			Reporter: ids[rng.IntN(len(ids))],
			Partner:  partners[rng.IntN(len(partners))].ID,
			Year:     years[rng.IntN(len(years))],
		}
	}

	stats.Selections = len(out)
	logger.Get().Info(ctx, "generated selections",
		logger.Int("count", len(out)),
		logger.Any("seed", seed),
	)
	return out, nil
}
