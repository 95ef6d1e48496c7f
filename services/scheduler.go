package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs the due-message sweep on a fixed interval. It is the
// background counterpart of the admin process endpoint; each tick is a
// bounded unit of work.
type Scheduler struct {
	interval   time.Duration
	dispatcher *Dispatcher

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(interval time.Duration, dispatcher *Dispatcher) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher must not be nil")
	}
	return &Scheduler{
		interval:   interval,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Printf("push sweep scheduler started, interval %s", s.interval)

		s.safeTick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Println("push sweep scheduler stopping")
				return
			case <-ticker.C:
				s.safeTick(ctx)
			}
		}
	}()

	return true
}

func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	log.Println("push sweep scheduler stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("push sweep panic recovered: %v", r)
		}
	}()

	processed, err := s.dispatcher.ProcessDue(ctx, time.Now())
	if err != nil {
		log.Printf("push sweep failed: %v", err)
		return
	}
	if processed > 0 {
		log.Printf("push sweep processed %d messages", processed)
	}
}
