/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scheduler.go
Description: Scheduler interface and implementations for pluggable batch task
ordering in the Statscope engine. Includes PriorityScheduler (largest input
file first) and FIFOScheduler (submission order).
*/

package core

import "sync"

// Scheduler defines the interface for pluggable batch task ordering.
// Allows the orchestrator to use different dispatch strategies.
type Scheduler interface {
	// Next returns the next task to dispatch, or nil if empty.
	Next() *BatchTask
	// Push adds a task to the scheduler.
	Push(task *BatchTask)
	// Size returns the number of tasks in the scheduler.
	Size() int
	// IsEmpty returns true if the scheduler is empty.
	IsEmpty() bool
}

// NewScheduler selects a scheduler implementation by name
// Unknown names fall back to the priority scheduler.
func NewScheduler(name string) Scheduler {
	switch name {
	case "fifo":
		return NewFIFOScheduler()
	default:
		return NewPriorityScheduler()
	}
}

// PriorityScheduler implements Scheduler using a PriorityQueue.
// Task priority is the source file size, so long files enter the pool
// early and short files fill the remaining slots.
type PriorityScheduler struct {
	queue *PriorityQueue
}

// NewPriorityScheduler creates a new PriorityScheduler instance.
func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{
		queue: NewPriorityQueue(),
	}
}

// Next returns the next task (highest priority) or nil if empty.
func (s *PriorityScheduler) Next() *BatchTask {
	return s.queue.Get()
}

// Push adds a task to the scheduler.
func (s *PriorityScheduler) Push(task *BatchTask) {
	s.queue.Put(task)
}

// Size returns the number of tasks in the scheduler.
func (s *PriorityScheduler) Size() int {
	return s.queue.Size()
}

// IsEmpty returns true if the scheduler is empty.
func (s *PriorityScheduler) IsEmpty() bool {
	return s.queue.IsEmpty()
}

// FIFOScheduler dispatches tasks in submission order.
type FIFOScheduler struct {
	tasks []*BatchTask
	mu    sync.Mutex
}

// NewFIFOScheduler creates a new FIFOScheduler instance.
func NewFIFOScheduler() *FIFOScheduler {
	return &FIFOScheduler{}
}

// Next returns the oldest task or nil if empty.
func (s *FIFOScheduler) Next() *BatchTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	return task
}

// Push adds a task to the scheduler.
func (s *FIFOScheduler) Push(task *BatchTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

// Size returns the number of tasks in the scheduler.
func (s *FIFOScheduler) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// IsEmpty returns true if the scheduler is empty.
func (s *FIFOScheduler) IsEmpty() bool {
	return s.Size() == 0
}
