// Drive infinite-scroll feeds until the listing count stops growing.
// The loader only watches a count; callers re-query the DOM for the
// actual postings afterwards.

package loader

import (
	"context"
	"log"
	"time"

	"go-jobpilot-automation/internal/driver"
)

// stagnantLimit is how many consecutive no-growth iterations end the
// loop.
const stagnantLimit = 2

type Loader struct {
	MaxIterations int
	ScrollPixels  int
	Settle        time.Duration
}

func New() *Loader {
	return &Loader{
		MaxIterations: 40,
		ScrollPixels:  1200,
		Settle:        800 * time.Millisecond,
	}
}

// LoadAll scrolls until the count of elements matching itemSelector
// plateaus for two iterations or the iteration ceiling is hit, and
// returns the final count. Scroll failures degrade to a stagnation
// tick rather than aborting the loop.
func (l *Loader) LoadAll(ctx context.Context, sess driver.Session, itemSelector string) (int, error) {
	prev := -1
	stagnant := 0

	for i := 0; i < l.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return max(prev, 0), err
		}

		count, err := sess.Count(itemSelector)
		if err != nil {
			log.Printf("⚠️ Listing count failed: %v", err)
			stagnant++
		} else if count == prev {
			stagnant++
		} else {
			stagnant = 0
			prev = count
		}

		if stagnant >= stagnantLimit {
			break
		}

		if err := sess.ScrollBy(l.ScrollPixels); err != nil {
			log.Printf("⚠️ Scroll failed, counting as stagnant: %v", err)
			stagnant++
			if stagnant >= stagnantLimit {
				break
			}
		}

		select {
		case <-ctx.Done():
			return max(prev, 0), ctx.Err()
		case <-time.After(l.Settle):
		}
	}

	return max(prev, 0), nil
}
