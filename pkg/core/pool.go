/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pool.go
Description: Bounded pool of warm worker sessions for the Statscope engine.
Hands each task exclusive use of one client for the task's duration, replaces
members that retire at their request ceiling, and quarantines members that
miss a liveness check instead of reusing them.
*/

package core

import (
	"context"
	"fmt"

	"github.com/kleascm/statscope/pkg/worker"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ClientFactory creates one fresh worker client
// The pool calls it at startup and whenever a member must be replaced.
type ClientFactory func() (*worker.Client, error)

// WorkerPool manages a fixed-size set of warm worker clients
// Acquire/Release give each in-flight task exclusive use of one member;
// no member serves two concurrent requests.
type WorkerPool struct {
	factory ClientFactory
	clients chan *worker.Client
	size    int
	logger  *logrus.Logger
}

// NewWorkerPool creates and warms a pool of the given size
func NewWorkerPool(size int, factory ClientFactory, logger *logrus.Logger) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	p := &WorkerPool{
		factory: factory,
		clients: make(chan *worker.Client, size),
		size:    size,
		logger:  logger,
	}
	// Warm the members concurrently; subprocess workers take a moment to
	// start and emit READY.
	var g errgroup.Group
	for i := 0; i < size; i++ {
		i := i
		g.Go(func() error {
			client, err := factory()
			if err != nil {
				return fmt.Errorf("failed to warm worker %d: %w", i, err)
			}
			p.clients <- client
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.Close()
		return nil, err
	}
	logger.WithFields(logrus.Fields{"size": size}).Info("Worker pool warmed")
	return p, nil
}

// Acquire takes exclusive ownership of one pool member
// Blocks until a member is free or the context is cancelled.
func (p *WorkerPool) Acquire(ctx context.Context) (*worker.Client, error) {
	select {
	case client := <-p.clients:
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a member to the pool after its task finishes
// A retired member is shut down and replaced with a fresh one; an
// unreplaceable slot is logged and left empty rather than poisoning
// subsequent tasks with a dead client.
func (p *WorkerPool) Release(client *worker.Client) {
	if client.Retired() {
		_ = client.Close()
		p.replace("session retired at request ceiling")
		return
	}
	p.clients <- client
}

// Discard removes a member believed unusable and replaces it
// Used after a timed-out task, when the liveness check fails or the member
// never drains its request. Abort tears the transport down even with a
// request still blocked on it.
func (p *WorkerPool) Discard(client *worker.Client, reason string) {
	_ = client.Abort()
	p.replace(reason)
}

// replace spawns a fresh member for a vacated slot
func (p *WorkerPool) replace(reason string) {
	client, err := p.factory()
	if err != nil {
		p.logger.WithFields(logrus.Fields{"reason": reason, "error": err}).Error("Failed to replace pool worker")
		return
	}
	p.logger.WithFields(logrus.Fields{"reason": reason}).Info("Replaced pool worker")
	p.clients <- client
}

// Close shuts down every idle member
// In-flight members are closed by their owning task via Release/Discard;
// callers should drain outstanding tasks first.
func (p *WorkerPool) Close() {
	for {
		select {
		case client := <-p.clients:
			if err := client.Shutdown(); err != nil {
				p.logger.WithFields(logrus.Fields{"error": err}).Debug("Worker shutdown reported an error")
			}
		default:
			return
		}
	}
}
