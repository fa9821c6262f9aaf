package source

import (
	"context"
	"fmt"
	"log/slog"

	"lineage/internal/genealogy/tree"
	"lineage/pkg/platform/circuit"
)

// FallbackFetcher reads from a primary source and switches to a fallback
// document once the primary has been unreachable for a number of consecutive
// fetches. The primary is still tried first on every fetch so the circuit can
// close again. Malformed primary documents are returned as errors and do not
// count against the circuit.
type FallbackFetcher struct {
	primary  Fetcher
	fallback Fetcher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallbackFetcher guards primary with breaker.
func NewFallbackFetcher(primary, fallback Fetcher, breaker *circuit.Breaker, logger *slog.Logger) *FallbackFetcher {
	return &FallbackFetcher{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

// Fetch implements Fetcher.
func (f *FallbackFetcher) Fetch(ctx context.Context) ([]tree.Record, error) {
	records, err := f.primary.Fetch(ctx)
	if err == nil {
		if _, change := f.breaker.RecordSuccess(); change.Closed {
			f.logger.InfoContext(ctx, "record source recovered, circuit closed",
				"circuit", f.breaker.Name(),
			)
		}
		return records, nil
	}
	if !IsUnavailable(err) {
		return nil, err
	}

	useFallback, change := f.breaker.RecordFailure()
	if change.Opened {
		f.logger.WarnContext(ctx, "record source unreachable, circuit opened",
			"circuit", f.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, err
	}
	return f.fallback.Fetch(ctx)
}

func (f *FallbackFetcher) String() string {
	return fmt.Sprintf("%v (fallback %v)", f.primary, f.fallback)
}

var _ Fetcher = (*FallbackFetcher)(nil)
