// Package scheduler wires up the cron job that periodically triggers a
// full run. Overlapping fires are skipped, one run at a time.

package scheduler

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron around a single run function.
type Scheduler struct {
	cron    *cron.Cron
	spec    string // cron spec, e.g. "@every 6h"
	run     func()
	running atomic.Bool
}

func New(spec string, run func()) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		spec: spec,
		run:  run,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			log.Println("⏭️ Previous run still in progress, skipping this fire")
			return
		}
		defer s.running.Store(false)
		s.run()
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	log.Printf("⏰ Scheduled runs: %s", s.spec)
	return nil
}

// Stop waits for an in-flight run before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
