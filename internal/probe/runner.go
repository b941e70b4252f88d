package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	service "github.com/okian/tradeflow/internal/app"
	"github.com/okian/tradeflow/internal/domain/reference"
	"github.com/okian/tradeflow/pkg/logger"
)

// Run executes a complete probe: health check, reference download,
// concurrent panel requests and verification. It fails when any answer was
// malformed; upstream failures are only counted.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Get().Named("probe").With(logger.String("run", stats.RunID))
	log.Info(ctx, "starting tradeflow probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("selections", cfg.Selections),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if _, err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	var reporters, partners []reference.Entry
	if _, err := client.getJSON(ctx, "/reference/"+string(reference.TableReporters), &reporters); err != nil {
		return stats, fmt.Errorf("reporter download failed: %w", err)
	}
	if _, err := client.getJSON(ctx, "/reference/"+string(reference.TablePartners), &partners); err != nil {
		return stats, fmt.Errorf("partner download failed: %w", err)
	}
	stats.Reporters, stats.Partners = len(reporters), len(partners)

	selections, err := generateSelections(ctx, cfg, reporters, partners, stats)
	if err != nil {
		return stats, fmt.Errorf("selection generation failed: %w", err)
	}

	problems := requestPanels(ctx, cfg, client, selections, stats)

	var st service.Stats
	if _, err := client.getJSON(ctx, "/stats", &st); err != nil {
		log.Warn(ctx, "stats download failed", logger.Error(err))
	} else {
		stats.DistinctFetched = st.Throttler.History
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, selections, stats)

	if len(problems) > 0 {
		return stats, fmt.Errorf("%d malformed answers: %w", len(problems), errors.Join(problems...))
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, selections []Selection, stats *Stats) {
	var successRate float64
	if stats.Requested > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Requested) * percentageMultiplier
	}

	log.Info(ctx, "final statistics",
		logger.String("selections", humanize.Comma(int64(stats.Selections))),
		logger.Int("distinctSelections", distinctSelections(selections)),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("upstreamFailed", stats.UpstreamFailed),
		logger.Int("failed", stats.Failed),
		logger.String("panels", humanize.Comma(int64(stats.PanelsReceived))),
		logger.Int("distinctFetched", stats.DistinctFetched),
		logger.String("successRate", humanize.FormatFloat("#.#", successRate)+"%"),
		logger.String("started", humanize.Time(stats.StartTime)),
		logger.Duration("duration", stats.Duration),
		logger.Duration("slowest", stats.SlowestRequestDur),
		logger.String("slowestPath", panelsPath(stats.SlowestSelection)),
	)
}
