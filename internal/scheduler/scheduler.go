package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Evictor drops sessions that have gone idle.
type Evictor interface {
	EvictIdle() []string
}

// Scheduler periodically sweeps idle lookup sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	evictor   Evictor
	interval  time.Duration
}

// New creates a new Scheduler.
func New(evictor Evictor, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		evictor:   evictor,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.evictor == nil {
		log.Println("scheduler: no session store configured; nothing to schedule")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) sweep() {
	ids := s.evictor.EvictIdle()
	if len(ids) > 0 {
		log.Printf("scheduler: evicted %d idle sessions", len(ids))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
