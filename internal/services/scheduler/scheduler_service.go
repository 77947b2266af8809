package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketmood/internal/common"
)

// Task is one scheduled unit of work
type Task func() error

// Service runs a single task on a cron schedule. A tick that fires while the
// previous run is still busy is skipped.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex // Protects isProcessing
	entryID cron.EntryID
	task    Task
	name    string

	isProcessing bool
	running      bool
	lastRun      *time.Time
	lastError    string
}

// NewService creates a stopped scheduler
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers task under name and starts ticking on cronExpr
func (s *Service) Start(name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if err := common.ValidateSchedule(cronExpr); err != nil {
		return err
	}

	id, err := s.cron.AddFunc(cronExpr, s.runScheduledTask)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	s.task = task
	s.name = name

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("task", name).
		Str("cron_expr", cronExpr).
		Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running task to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// RunNow executes the task immediately, outside the schedule
func (s *Service) RunNow() {
	s.runScheduledTask()
}

// IsRunning reports whether the scheduler is ticking
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled tick, zero when not running
func (s *Service) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// LastRun returns the completion time and error text of the last run
func (s *Service) LastRun() (*time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError
}

func (s *Service) runScheduledTask() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("task", s.name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled task")
			s.finish(fmt.Errorf("panic: %v", r))
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Str("task", s.name).Msg("Previous run still in progress, skipping this cycle")
		return
	}
	if s.task == nil {
		s.mu.Unlock()
		return
	}
	s.isProcessing = true
	task := s.task
	s.mu.Unlock()

	started := time.Now()
	s.logger.Info().Str("task", s.name).Msg("Scheduled run started")

	err := task()
	if err != nil {
		s.logger.Error().
			Str("task", s.name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Scheduled run failed")
	} else {
		s.logger.Info().
			Str("task", s.name).
			Dur("duration", time.Since(started)).
			Msg("Scheduled run completed")
	}
	s.finish(err)
}

func (s *Service) finish(err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isProcessing = false
	s.lastRun = &now
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}
