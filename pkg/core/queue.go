/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: queue.go
Description: Priority queue for batch task scheduling in the Statscope engine.
Provides efficient insertion, removal, and priority-based ordering so the pool
drains expensive files first. Uses a binary heap data structure for O(log n)
operations.
*/

package core

import (
	"sync"
	"time"
)

// PriorityQueue implements a thread-safe priority queue for batch tasks
// Uses a binary heap for efficient priority-based operations
type PriorityQueue struct {
	heap []*BatchTask // Binary heap array
	mu   sync.RWMutex // Thread safety
	size int          // Current number of elements

	// Performance tracking
	insertions int64
	removals   int64
	lastAccess time.Time
}

// NewPriorityQueue creates a new priority queue instance
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		heap: make([]*BatchTask, 0, 256),
	}
}

// Put adds a batch task to the priority queue
// Maintains heap property for efficient priority-based retrieval
func (pq *PriorityQueue) Put(task *BatchTask) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	pq.heap = append(pq.heap, task)
	pq.size++
	pq.insertions++
	pq.lastAccess = time.Now()

	pq.bubbleUp(pq.size - 1)
}

// Get removes and returns the highest priority task
// Returns nil if queue is empty
func (pq *PriorityQueue) Get() *BatchTask {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if pq.size == 0 {
		return nil
	}

	root := pq.heap[0]
	pq.removals++
	pq.lastAccess = time.Now()

	pq.heap[0] = pq.heap[pq.size-1]
	pq.heap = pq.heap[:pq.size-1]
	pq.size--

	if pq.size > 0 {
		pq.bubbleDown(0)
	}

	return root
}

// Peek returns the highest priority task without removing it
// Returns nil if queue is empty
func (pq *PriorityQueue) Peek() *BatchTask {
	pq.mu.RLock()
	defer pq.mu.RUnlock()

	if pq.size == 0 {
		return nil
	}
	return pq.heap[0]
}

// Size returns the current number of tasks in the queue
func (pq *PriorityQueue) Size() int {
	pq.mu.RLock()
	defer pq.mu.RUnlock()
	return pq.size
}

// IsEmpty returns true if the queue is empty
func (pq *PriorityQueue) IsEmpty() bool {
	return pq.Size() == 0
}

// Clear removes all tasks from the queue
func (pq *PriorityQueue) Clear() {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	pq.heap = pq.heap[:0]
	pq.size = 0
}

// GetStats returns queue performance statistics
func (pq *PriorityQueue) GetStats() map[string]interface{} {
	pq.mu.RLock()
	defer pq.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["size"] = pq.size
	stats["capacity"] = cap(pq.heap)
	stats["insertions"] = pq.insertions
	stats["removals"] = pq.removals
	stats["last_access"] = pq.lastAccess

	if pq.size > 0 {
		minPriority := pq.heap[0].Priority
		maxPriority := pq.heap[0].Priority
		for _, task := range pq.heap {
			if task.Priority < minPriority {
				minPriority = task.Priority
			}
			if task.Priority > maxPriority {
				maxPriority = task.Priority
			}
		}
		stats["min_priority"] = minPriority
		stats["max_priority"] = maxPriority
	}

	return stats
}

// bubbleUp moves an element up the heap to maintain heap property
// Used after insertion to restore heap order
func (pq *PriorityQueue) bubbleUp(index int) {
	for index > 0 {
		parent := (index - 1) / 2

		if pq.heap[index].Priority > pq.heap[parent].Priority {
			pq.heap[index], pq.heap[parent] = pq.heap[parent], pq.heap[index]
			index = parent
		} else {
			break
		}
	}
}

// bubbleDown moves an element down the heap to maintain heap property
// Used after removal to restore heap order
func (pq *PriorityQueue) bubbleDown(index int) {
	for {
		left := 2*index + 1
		right := 2*index + 2
		largest := index

		if left < pq.size && pq.heap[left].Priority > pq.heap[largest].Priority {
			largest = left
		}

		if right < pq.size && pq.heap[right].Priority > pq.heap[largest].Priority {
			largest = right
		}

		if largest != index {
			pq.heap[index], pq.heap[largest] = pq.heap[largest], pq.heap[index]
			index = largest
		} else {
			break
		}
	}
}
