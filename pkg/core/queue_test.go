/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: queue_test.go
Description: Tests for the priority queue and the pluggable schedulers.
*/

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// task builds a minimal scan task with the given priority
func task(id string, priority int) *BatchTask {
	return &BatchTask{ID: id, Kind: TaskScan, File: id + ".txt", Priority: priority}
}

// TestPriorityQueueOrdering tests highest-priority-first retrieval
func TestPriorityQueueOrdering(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Put(task("small", 10))
	pq.Put(task("large", 1000))
	pq.Put(task("medium", 100))

	assert.Equal(t, 3, pq.Size())
	assert.Equal(t, "large", pq.Peek().ID)

	assert.Equal(t, "large", pq.Get().ID)
	assert.Equal(t, "medium", pq.Get().ID)
	assert.Equal(t, "small", pq.Get().ID)
	assert.Nil(t, pq.Get())
	assert.True(t, pq.IsEmpty())
}

// TestPriorityQueueClear tests queue reset
func TestPriorityQueueClear(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Put(task("a", 1))
	pq.Put(task("b", 2))
	pq.Clear()

	assert.True(t, pq.IsEmpty())
	assert.Nil(t, pq.Peek())
}

// TestPriorityQueueStats tests the performance counters
func TestPriorityQueueStats(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Put(task("a", 5))
	pq.Put(task("b", 50))
	pq.Get()

	stats := pq.GetStats()
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, int64(2), stats["insertions"])
	assert.Equal(t, int64(1), stats["removals"])
	assert.Equal(t, 5, stats["min_priority"])
	assert.Equal(t, 5, stats["max_priority"])
}

// TestFIFOScheduler tests submission-order dispatch
func TestFIFOScheduler(t *testing.T) {
	s := NewFIFOScheduler()
	s.Push(task("first", 1))
	s.Push(task("second", 1000))
	s.Push(task("third", 10))

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, "first", s.Next().ID)
	assert.Equal(t, "second", s.Next().ID)
	assert.Equal(t, "third", s.Next().ID)
	assert.Nil(t, s.Next())
	assert.True(t, s.IsEmpty())
}

// TestPriorityScheduler tests size-ordered dispatch
func TestPriorityScheduler(t *testing.T) {
	s := NewPriorityScheduler()
	s.Push(task("short", 10))
	s.Push(task("long", 9000))

	assert.Equal(t, "long", s.Next().ID)
	assert.Equal(t, "short", s.Next().ID)
}

// TestNewSchedulerSelection tests scheduler selection by name
func TestNewSchedulerSelection(t *testing.T) {
	_, ok := NewScheduler("fifo").(*FIFOScheduler)
	require.True(t, ok)
	_, ok = NewScheduler("priority").(*PriorityScheduler)
	require.True(t, ok)
	// Unknown names fall back to priority ordering
	_, ok = NewScheduler("mystery").(*PriorityScheduler)
	require.True(t, ok)
}
