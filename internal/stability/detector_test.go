package stability

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-jobpilot-automation/internal/driver/drivertest"
)

func TestTrackerStableAfterThreshold(t *testing.T) {
	tr := NewTracker(7)
	s := Sample{URL: "u", Fingerprint: "fp"}
	for i := 1; i <= 6; i++ {
		assert.False(t, tr.Observe(s), "sample %d", i)
	}
	assert.True(t, tr.Observe(s), "seventh identical sample")
}

func TestTrackerResetOnChange(t *testing.T) {
	tr := NewTracker(3)
	same := Sample{URL: "u", Fingerprint: "a"}
	other := Sample{URL: "u", Fingerprint: "b"}

	assert.False(t, tr.Observe(same))
	assert.False(t, tr.Observe(same))
	assert.False(t, tr.Observe(other)) // streak restarts
	assert.False(t, tr.Observe(other))
	assert.True(t, tr.Observe(other))
}

// Randomized change points: stability is reached exactly threshold
// samples after the last change, never earlier.
func TestTrackerRandomizedChangePoints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		threshold := rng.Intn(8) + 2
		tr := NewTracker(threshold)

		changes := rng.Intn(10)
		fp := 0
		sinceChange := 0
		for i := 0; i < changes*3+threshold; i++ {
			if changes > 0 && rng.Intn(3) == 0 {
				fp++
				changes--
				sinceChange = 0
			}
			sinceChange++
			stable := tr.Observe(Sample{URL: "u", Fingerprint: fmt.Sprint(fp)})
			assert.Equal(t, sinceChange >= threshold, stable,
				"trial %d sample %d (threshold %d, streak %d)", trial, i, threshold, sinceChange)
			if stable {
				break
			}
		}
	}
}

func fastDetector(isChallenge func(string) bool) *Detector {
	d := NewDetector(isChallenge)
	d.Threshold = 3
	d.Interval = time.Millisecond
	d.Ceiling = 50 * time.Millisecond
	return d
}

func TestWaitForStable(t *testing.T) {
	sess := drivertest.New()
	sess.Fingerprints = []string{"a", "b", "c", "c", "c", "c"}

	status := fastDetector(nil).WaitForStable(context.Background(), sess)
	assert.Equal(t, Stable, status)
}

func TestWaitForStableTimeout(t *testing.T) {
	sess := drivertest.New()
	// every sample different, never settles
	for i := 0; i < 200; i++ {
		sess.Fingerprints = append(sess.Fingerprints, fmt.Sprint(i))
	}

	status := fastDetector(nil).WaitForStable(context.Background(), sess)
	assert.Equal(t, Unstable, status)
}

func TestWaitForStableChallenge(t *testing.T) {
	sess := drivertest.New()
	sess.Fingerprints = []string{"loading", "请完成安全验证|120"}

	isChallenge := func(fp string) bool { return strings.Contains(fp, "安全验证") }
	status := fastDetector(isChallenge).WaitForStable(context.Background(), sess)
	assert.Equal(t, ChallengeDetected, status)
}

// Sampling errors must never masquerade as a quiet page.
func TestWaitForStablePersistentSampleErrors(t *testing.T) {
	sess := drivertest.New()
	sess.FingerprintErr = errors.New("execution context destroyed")

	status := fastDetector(nil).WaitForStable(context.Background(), sess)
	assert.Equal(t, Unstable, status)
}

func TestWaitForStableCancelled(t *testing.T) {
	sess := drivertest.New()
	sess.Fingerprints = []string{"a"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := fastDetector(nil)
	d.Threshold = 100
	assert.Equal(t, Unstable, d.WaitForStable(ctx, sess))
}
