// The run orchestrator: per (city, keyword) unit, load the feed,
// extract and filter postings, then drive the apply machine over the
// survivors in listing order.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"go-jobpilot-automation/internal/apply"
	"go-jobpilot-automation/internal/cache"
	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/driver"
	"go-jobpilot-automation/internal/filter"
	"go-jobpilot-automation/internal/loader"
	"go-jobpilot-automation/internal/pacing"
	"go-jobpilot-automation/internal/site"
	"go-jobpilot-automation/internal/stability"
)

// Stop reasons recorded in the summary when a run ends early.
const (
	StopQuotaExceeded = "quota_exceeded"
	StopCancelled     = "cancelled"
	StopRateLimit     = "rate_limit"
)

// Summary is the end-of-run aggregate. It is produced even when the
// run stops early; postings already contacted are never rolled back.
type Summary struct {
	RunID     string
	Site      string
	StartedAt time.Time
	Elapsed   time.Duration
	Counts    map[apply.Outcome]int
	Filtered  int
	Contacted []site.Posting
	Stopped   string
}

func (s *Summary) record(res apply.Result) {
	s.Counts[res.Outcome]++
	if res.Outcome == apply.OutcomeSent {
		s.Contacted = append(s.Contacted, res.Posting)
	}
}

// Deps wires the pipeline. Cache may be nil.
type Deps struct {
	Config   *config.Config
	Adapter  site.Adapter
	Session  driver.Session
	Machine  *apply.Machine
	Rate     *pacing.Controller
	Filter   *filter.Engine
	Detector *stability.Detector
	Loader   *loader.Loader
	Cache    *cache.Cache
}

type Pipeline struct {
	deps Deps

	// ChallengeBackoff is how long to pause before retrying a unit
	// that hit a verification challenge.
	ChallengeBackoff time.Duration
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps, ChallengeBackoff: 30 * time.Second}
}

// Run walks every (city, keyword) unit. Only a hit quota or
// cancellation stops the whole run; unit-level failures are logged
// and the next unit proceeds.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:     uuid.New().String(),
		Site:      p.deps.Adapter.Name(),
		StartedAt: start,
		Counts:    make(map[apply.Outcome]int),
	}
	defer func() { summary.Elapsed = time.Since(start) }()

	p.deps.Rate.Reset()
	log.Printf("🚀 Run %s starting: %d cities x %d keywords", summary.RunID, len(p.deps.Config.CityCodes), len(p.deps.Config.Keywords))

	for _, city := range p.deps.Config.CityCodes {
		for _, keyword := range p.deps.Config.Keywords {
			if ctx.Err() != nil {
				summary.Stopped = StopCancelled
				return summary, ctx.Err()
			}

			err := p.runUnit(ctx, summary, city, keyword)
			switch {
			case errors.Is(err, apply.ErrQuotaExceeded):
				summary.Stopped = StopQuotaExceeded
				return summary, err
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				summary.Stopped = StopCancelled
				return summary, err
			case err != nil:
				log.Printf("⚠️ Unit (%s, %s) abandoned: %v", city, keyword, err)
			}

			if !p.deps.Rate.ShouldContinue() {
				summary.Stopped = StopRateLimit
				return summary, nil
			}
		}
	}

	return summary, nil
}

func (p *Pipeline) runUnit(ctx context.Context, summary *Summary, city, keyword string) error {
	postings, err := p.collect(ctx, city, keyword)
	if err != nil {
		return err
	}
	log.Printf("📦 (%s, %s): %d postings", city, keyword, len(postings))

	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.deps.Rate.ShouldContinue() {
			return nil
		}

		if excluded, reason := p.deps.Filter.ShouldExclude(posting, keyword); excluded {
			log.Printf("🚫 Skipped %s: %s", posting.Title, reason)
			summary.Filtered++
			continue
		}

		p.deps.Rate.WaitBetweenVisits()

		res := p.deps.Machine.Apply(ctx, p.deps.Session, keyword, posting)
		summary.record(res)
		if res.Outcome == apply.OutcomeSkippedQuota {
			return res.Err
		}
	}
	return nil
}

// collect loads and extracts the postings for one unit, consulting
// the snapshot cache first.
func (p *Pipeline) collect(ctx context.Context, city, keyword string) ([]site.Posting, error) {
	adapter := p.deps.Adapter
	if p.deps.Cache != nil {
		if postings, ok := p.deps.Cache.Get(ctx, adapter.Name(), keyword, city); ok {
			log.Printf("⚡ Cache hit for (%s, %s)", city, keyword)
			return postings, nil
		}
	}

	sel := adapter.Selectors()
	url := adapter.SearchURL(city, keyword)
	if err := p.deps.Session.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to listing: %w", err)
	}

	status := p.waitStable(ctx)
	if status == stability.ChallengeDetected {
		// pause and retry the unit once before abandoning it
		p.deps.Session.Screenshot("challenge")
		log.Printf("🛡️ Verification challenge on (%s, %s), backing off %v", city, keyword, p.ChallengeBackoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.ChallengeBackoff):
		}
		if err := p.deps.Session.Navigate(ctx, url); err != nil {
			return nil, fmt.Errorf("navigate after challenge: %w", err)
		}
		if status = p.waitStable(ctx); status == stability.ChallengeDetected {
			return nil, fmt.Errorf("verification challenge persists on (%s, %s)", city, keyword)
		}
	}
	if status == stability.Unstable {
		log.Printf("⚠️ (%s, %s) never settled, extracting what loaded", city, keyword)
	}

	count, err := p.deps.Loader.LoadAll(ctx, p.deps.Session, sel.ListingItem)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	html, err := p.deps.Session.InnerHTML(sel.ListingContainer)
	if err != nil {
		return nil, fmt.Errorf("read listing container: %w", err)
	}
	postings, err := adapter.ExtractPostings(html)
	if err != nil {
		return nil, err
	}

	if p.deps.Cache != nil {
		if err := p.deps.Cache.Set(ctx, adapter.Name(), keyword, city, postings); err != nil {
			log.Printf("⚠️ Could not cache listings: %v", err)
		}
	}
	return postings, nil
}

func (p *Pipeline) waitStable(ctx context.Context) stability.Status {
	if p.deps.Detector == nil {
		return stability.Stable
	}
	return p.deps.Detector.WaitForStable(ctx, p.deps.Session)
}
