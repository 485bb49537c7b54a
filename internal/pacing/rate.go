// Human-like pacing plus the two run-level circuit breakers: a hard
// cap on successful sends and an abort threshold on consecutive
// failures.

package pacing

import (
	"log"
	"sync"

	"go-jobpilot-automation/utils"
)

type Controller struct {
	mu sync.Mutex

	maxSuccesses    int
	maxConsecFails  int
	delayMinSeconds int
	delayMaxSeconds int

	successCount int
	consecFails  int
}

func NewController(maxSuccesses, maxConsecFails, delayMinSeconds, delayMaxSeconds int) *Controller {
	if delayMinSeconds < 0 {
		delayMinSeconds = 0
	}
	if delayMaxSeconds < delayMinSeconds {
		delayMaxSeconds = delayMinSeconds
	}
	return &Controller{
		maxSuccesses:    maxSuccesses,
		maxConsecFails:  maxConsecFails,
		delayMinSeconds: delayMinSeconds,
		delayMaxSeconds: delayMaxSeconds,
	}
}

// Reset clears the per-run counters at the start of a run.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successCount = 0
	c.consecFails = 0
}

// ShouldContinue is consulted before each posting visit.
func (c *Controller) ShouldContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSuccesses > 0 && c.successCount >= c.maxSuccesses {
		log.Printf("🛑 Send cap reached (%d), stopping run", c.maxSuccesses)
		return false
	}
	if c.maxConsecFails > 0 && c.consecFails >= c.maxConsecFails {
		log.Printf("🛑 %d consecutive failures, stopping run", c.consecFails)
		return false
	}
	return true
}

// RecordSuccess counts a verified send and clears the failure streak.
func (c *Controller) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successCount++
	c.consecFails = 0
}

func (c *Controller) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecFails++
}

func (c *Controller) SuccessCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.successCount
}

// WaitBetweenVisits sleeps a random human-like interval. The failure
// streak stretches the wait so a struggling site gets breathing room.
func (c *Controller) WaitBetweenVisits() {
	c.mu.Lock()
	fails := c.consecFails
	c.mu.Unlock()

	minMs := c.delayMinSeconds * 1000
	maxMs := c.delayMaxSeconds * 1000
	if fails > 0 {
		// doubles per consecutive failure, capped at 4x
		factor := 1 << fails
		if factor > 4 {
			factor = 4
		}
		minMs *= factor
		maxMs *= factor
	}
	utils.RandomDelay(minMs, maxMs)
}
