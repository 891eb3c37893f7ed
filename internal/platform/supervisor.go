package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type RestartPolicy string

const (
	RestartPermanent RestartPolicy = "permanent"
	RestartTransient RestartPolicy = "transient"
	RestartTemporary RestartPolicy = "temporary"
)

type SupervisorPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	MaxRestarts    int
}

type TaskStatus struct {
	Name            string        `json:"name"`
	RestartPolicy   RestartPolicy `json:"restart_policy"`
	RestartCount    int           `json:"restart_count"`
	LastError       string        `json:"last_error,omitempty"`
	PermanentFailed bool          `json:"permanent_failed"`
}

func defaultSupervisorPolicy() SupervisorPolicy {
	return SupervisorPolicy{
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     200 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func normalizeSupervisorPolicy(policy SupervisorPolicy) SupervisorPolicy {
	def := defaultSupervisorPolicy()
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = def.MaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = def.BackoffFactor
	}
	return policy
}

// Supervisor restarts failed tasks with exponential backoff. Used for
// long-lived run loops that should survive transient evaluation failures.
type Supervisor struct {
	policy SupervisorPolicy

	mu       sync.Mutex
	tasks    map[string]*supervisedTask
	finished map[string]TaskStatus
}

type supervisedTask struct {
	cancel  context.CancelFunc
	done    chan struct{}
	name    string
	restart RestartPolicy

	restartCount    int
	lastErr         error
	permanentFailed bool
}

func NewSupervisor(policy SupervisorPolicy) *Supervisor {
	return &Supervisor{
		policy:   normalizeSupervisorPolicy(policy),
		tasks:    make(map[string]*supervisedTask),
		finished: make(map[string]TaskStatus),
	}
}

func (s *Supervisor) Start(name string, restart RestartPolicy, run func(ctx context.Context) error) error {
	if name == "" {
		return errors.New("task name is required")
	}
	if run == nil {
		return errors.New("task runner is required")
	}
	switch restart {
	case RestartPermanent, RestartTransient, RestartTemporary:
	case "":
		restart = RestartPermanent
	default:
		return fmt.Errorf("unsupported restart policy: %s", restart)
	}

	s.mu.Lock()
	if _, exists := s.tasks[name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("task already running: %s", name)
	}
	delete(s.finished, name)
	ctx, cancel := context.WithCancel(context.Background())
	task := &supervisedTask{
		cancel:  cancel,
		done:    make(chan struct{}),
		name:    name,
		restart: restart,
	}
	s.tasks[name] = task
	s.mu.Unlock()

	go s.runTask(ctx, task, run)
	return nil
}

func (s *Supervisor) runTask(ctx context.Context, task *supervisedTask, run func(ctx context.Context) error) {
	defer func() {
		s.mu.Lock()
		if current, ok := s.tasks[task.name]; ok && current == task {
			if task.permanentFailed || task.restartCount > 0 || task.lastErr != nil {
				s.finished[task.name] = s.statusLocked(task)
			}
			delete(s.tasks, task.name)
		}
		s.mu.Unlock()
		close(task.done)
	}()

	backoff := s.policy.InitialBackoff

	for {
		err := run(ctx)
		if ctx.Err() != nil {
			return
		}
		if !shouldRestart(task.restart, err) {
			return
		}

		s.mu.Lock()
		task.lastErr = err
		restarts := task.restartCount
		s.mu.Unlock()

		if s.policy.MaxRestarts > 0 && restarts >= s.policy.MaxRestarts {
			s.mu.Lock()
			task.permanentFailed = true
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		task.restartCount = restarts + 1
		s.mu.Unlock()

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		next := time.Duration(float64(backoff) * s.policy.BackoffFactor)
		if next > s.policy.MaxBackoff {
			next = s.policy.MaxBackoff
		}
		backoff = next
	}
}

func shouldRestart(policy RestartPolicy, err error) bool {
	switch policy {
	case RestartTransient:
		return err != nil
	case RestartTemporary:
		return false
	default:
		return true
	}
}

func (s *Supervisor) Stop(name string) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	delete(s.finished, name)
	s.mu.Unlock()
	if !ok {
		return
	}
	task.cancel()
	<-task.done
}

func (s *Supervisor) StopAll() {
	s.mu.Lock()
	tasks := make([]*supervisedTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	s.finished = make(map[string]TaskStatus)
	s.mu.Unlock()

	for _, task := range tasks {
		task.cancel()
	}
	for _, task := range tasks {
		<-task.done
	}
}

func (s *Supervisor) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Supervisor) Children() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks)+len(s.finished))
	for name := range s.tasks {
		names = append(names, name)
	}
	for name := range s.finished {
		if _, active := s.tasks[name]; active {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TaskStatus, 0, len(names))
	for _, name := range names {
		if task, ok := s.tasks[name]; ok {
			out = append(out, s.statusLocked(task))
			continue
		}
		if finished, ok := s.finished[name]; ok {
			out = append(out, finished)
		}
	}
	return out
}

func (s *Supervisor) statusLocked(task *supervisedTask) TaskStatus {
	return TaskStatus{
		Name:            task.name,
		RestartPolicy:   task.restart,
		RestartCount:    task.restartCount,
		LastError:       errString(task.lastErr),
		PermanentFailed: task.permanentFailed,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
