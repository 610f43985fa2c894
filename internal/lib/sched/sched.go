// Package sched реализует планировщик отложенных и периодических задач
// с явными хендлами отмены. Все таймеры берутся из инжектируемых часов,
// поэтому в тестах планировщик работает с виртуальным временем и не спит.
package sched

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler управляет набором запланированных задач. Close отменяет все
// живые задачи и дожидается завершения их горутин, что делает teardown
// детерминированным.
type Scheduler struct {
	clk clock.Clock

	mu     sync.Mutex
	closed bool
	tasks  map[*Task]struct{}
	wg     sync.WaitGroup
}

// Task — хендл одной запланированной задачи.
type Task struct {
	cancel chan struct{}
	once   sync.Once
}

// Cancel отменяет задачу. Уже выполняющийся запуск доработает до конца,
// новых запусков не будет. Повторные вызовы безопасны.
func (t *Task) Cancel() {
	t.once.Do(func() { close(t.cancel) })
}

// New создает Scheduler поверх переданных часов.
func New(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clk:   clk,
		tasks: make(map[*Task]struct{}),
	}
}

// After планирует однократный запуск fn через d. Возвращённый Task
// позволяет отменить запуск до срабатывания.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	task := &Task{cancel: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		task.Cancel()
		return task
	}
	s.tasks[task] = struct{}{}
	s.wg.Add(1)
	timer := s.clk.Timer(d)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.forget(task)
		select {
		case <-timer.C:
			fn()
		case <-task.cancel:
			timer.Stop()
		}
	}()
	return task
}

// Every планирует периодический запуск fn с интервалом d. Следующий запуск
// планируется только после завершения предыдущего: тики никогда не
// перекрываются. Отмена из fn допустима и останавливает цикл после
// текущего запуска.
func (s *Scheduler) Every(d time.Duration, fn func()) *Task {
	task := &Task{cancel: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		task.Cancel()
		return task
	}
	s.tasks[task] = struct{}{}
	s.wg.Add(1)
	timer := s.clk.Timer(d)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.forget(task)
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				fn()
				timer.Reset(d)
			case <-task.cancel:
				return
			}
		}
	}()
	return task
}

// Close отменяет все задачи и ждёт завершения их горутин.
// После Close новые задачи не стартуют.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for task := range s.tasks {
		task.Cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) forget(task *Task) {
	s.mu.Lock()
	delete(s.tasks, task)
	s.mu.Unlock()
}
