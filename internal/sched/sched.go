// Package sched fans probes out over a bounded worker pool.
package sched

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// ProbeFunc runs the full probe for one descriptor. An error means the
// probe failed unexpectedly; the scheduler logs it and drops the
// descriptor from the run.
type ProbeFunc func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error)

// Outcome pairs a descriptor with its completed measurement. The slice
// returned by Run is in completion order, which downstream ranking uses as
// its tie-break; no other ordering is guaranteed.
type Outcome struct {
	Descriptor model.NodeDescriptor
	Result     model.ProbeResult
}

type message struct {
	outcome Outcome
	err     error
}

// Run probes every descriptor with at most workers probes in flight.
// Worker results flow through a channel to a single aggregating consumer,
// so no mutable state is shared between workers. A failed probe never
// aborts the run for the others; Run reports how many were dropped.
func Run(ctx context.Context, descriptors []model.NodeDescriptor, workers int, fn ProbeFunc) (results []Outcome, dropped int) {
	if workers <= 0 {
		workers = 3
	}

	ch := make(chan message)
	done := make(chan struct{})

	results = make([]Outcome, 0, len(descriptors))
	go func() {
		defer close(done)
		for m := range ch {
			if m.err != nil {
				log.Printf("节点测试失败，跳过该节点: %v", m.err)
				dropped++
				continue
			}
			results = append(results, m.outcome)
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, d := range descriptors {
		d := d
		g.Go(func() error {
			res, err := fn(ctx, d)
			if err != nil {
				ch <- message{err: err}
				return nil
			}
			ch <- message{outcome: Outcome{Descriptor: d, Result: res}}
			return nil
		})
	}
	_ = g.Wait()
	close(ch)
	<-done
	return results, dropped
}
