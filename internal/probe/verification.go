package probe

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/okian/tradeflow/internal/domain/panel"
)

// ErrVerification marks a payload that contradicts its request.
var ErrVerification = errors.New("probe: verification failed")

// verifyPanels checks that a /panels answer lists every panel in display
// order and that no visible panel carries data of another reporter.
func verifyPanels(s Selection, results []panel.Result) error {
	if len(results) != len(panel.Names) {
		return fmt.Errorf("%w: %s: got %d panels, want %d",
			ErrVerification, panelsPath(s), len(results), len(panel.Names))
	}
	reporter, atoiErr := strconv.Atoi(s.Reporter)
	for i, res := range results {
		if res.Panel != panel.Names[i] {
			return fmt.Errorf("%w: %s: panel %d is %q, want %q",
				ErrVerification, panelsPath(s), i, res.Panel, panel.Names[i])
		}
		if res.Hidden || atoiErr != nil {
			continue
		}
		for _, f := range res.Facts {
			if f.Reporter != reporter {
				return fmt.Errorf("%w: %s: %s has a fact of reporter %d",
					ErrVerification, panelsPath(s), res.Panel, f.Reporter)
			}
		}
		for _, r := range res.Records {
			if r.Reporter != reporter {
				return fmt.Errorf("%w: %s: %s has a record of reporter %d",
					ErrVerification, panelsPath(s), res.Panel, r.Reporter)
			}
		}
	}
	return nil
}

// distinctSelections counts the different filters in selections.
func distinctSelections(selections []Selection) int {
	seen := make(map[Selection]struct{}, len(selections))
	for _, s := range selections {
		seen[s] = struct{}{}
	}
	return len(seen)
}
