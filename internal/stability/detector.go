// Decide when a dynamically-loading page has stopped changing, without
// a fixed sleep. A page is stable once enough consecutive samples of
// (url, fingerprint) come back identical.

package stability

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-jobpilot-automation/internal/driver"
)

type Status int

const (
	// Stable means the page stopped mutating.
	Stable Status = iota
	// Unstable means the ceiling passed before the streak completed.
	// Callers decide whether to retry or abandon; it is not an error.
	Unstable
	// ChallengeDetected means the fingerprint looks like a bot
	// verification page. Callers should pause, not busy-loop.
	ChallengeDetected
)

func (s Status) String() string {
	switch s {
	case Stable:
		return "stable"
	case Unstable:
		return "unstable"
	case ChallengeDetected:
		return "challenge"
	}
	return "unknown"
}

// Sample is one observation of the page.
type Sample struct {
	URL         string
	Fingerprint string
}

// Tracker is the pure counting core: a streak of identical samples of
// length >= threshold means stable. Any differing sample restarts the
// streak at one.
type Tracker struct {
	threshold int
	prev      Sample
	streak    int
}

func NewTracker(threshold int) *Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return &Tracker{threshold: threshold}
}

// Observe feeds one sample and reports whether the page is now stable.
func (t *Tracker) Observe(s Sample) bool {
	if t.streak > 0 && s == t.prev {
		t.streak++
	} else {
		t.prev = s
		t.streak = 1
	}
	return t.streak >= t.threshold
}

// Detector samples a session on a fixed cadence until it is stable,
// the ceiling passes, or a challenge shows up.
type Detector struct {
	Threshold   int
	Interval    time.Duration
	Ceiling     time.Duration
	IsChallenge func(fingerprint string) bool
}

func NewDetector(isChallenge func(string) bool) *Detector {
	return &Detector{
		Threshold:   7,
		Interval:    time.Second,
		Ceiling:     10 * time.Second,
		IsChallenge: isChallenge,
	}
}

func (d *Detector) WaitForStable(ctx context.Context, sess driver.Session) Status {
	tracker := NewTracker(d.Threshold)
	deadline := time.Now().Add(d.Ceiling)
	sampleErrs := 0

	for {
		if ctx.Err() != nil {
			return Unstable
		}

		fp, err := sess.SnapshotFingerprint()
		if err != nil {
			// A failed sample counts as change, not as a failure. Each
			// one gets a unique stand-in so a run of errors can never
			// build a streak and pass as stable.
			log.Printf("⚠️ Fingerprint sample failed: %v", err)
			sampleErrs++
			fp = fmt.Sprintf("\x00sample-error-%d", sampleErrs)
		}

		if d.IsChallenge != nil && d.IsChallenge(fp) {
			return ChallengeDetected
		}

		if tracker.Observe(Sample{URL: sess.CurrentURL(), Fingerprint: fp}) {
			return Stable
		}

		if time.Now().Add(d.Interval).After(deadline) {
			return Unstable
		}

		select {
		case <-ctx.Done():
			return Unstable
		case <-time.After(d.Interval):
		}
	}
}
