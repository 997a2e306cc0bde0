package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

func descriptors(n int) []model.NodeDescriptor {
	out := make([]model.NodeDescriptor, n)
	for i := range out {
		out[i] = model.NodeDescriptor{Raw: string(rune('a'+i)) + ":1", Protocol: model.ProtocolHostPort}
	}
	return out
}

func TestRun_AllComplete(t *testing.T) {
	in := descriptors(8)
	results, dropped := Run(context.Background(), in, 3, func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
		return model.ProbeResult{LatencyMS: 42, LatencyPassed: true}, nil
	})

	if dropped != 0 {
		t.Fatalf("dropped=%d, want=0", dropped)
	}
	if len(results) != len(in) {
		t.Fatalf("len(results)=%d, want=%d", len(results), len(in))
	}

	seen := make(map[string]struct{}, len(results))
	for _, o := range results {
		if o.Result.LatencyMS != 42 {
			t.Fatalf("LatencyMS=%d, want=42", o.Result.LatencyMS)
		}
		seen[o.Descriptor.Raw] = struct{}{}
	}
	if len(seen) != len(in) {
		t.Fatalf("unique results=%d, want=%d", len(seen), len(in))
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	const workers = 3
	var inflight, peak atomic.Int32

	_, _ = Run(context.Background(), descriptors(20), workers, func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return model.ProbeResult{}, nil
	})

	if p := peak.Load(); p > workers {
		t.Fatalf("peak concurrency=%d, want <= %d", p, workers)
	}
}

func TestRun_DropsFailedProbes(t *testing.T) {
	in := descriptors(5)
	failRaw := in[2].Raw

	results, dropped := Run(context.Background(), in, 2, func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
		if d.Raw == failRaw {
			return model.ProbeResult{}, errors.New("boom")
		}
		return model.ProbeResult{LatencyPassed: true}, nil
	})

	if dropped != 1 {
		t.Fatalf("dropped=%d, want=1", dropped)
	}
	if len(results) != 4 {
		t.Fatalf("len(results)=%d, want=4", len(results))
	}
	for _, o := range results {
		if o.Descriptor.Raw == failRaw {
			t.Fatalf("failed descriptor %q present in results", failRaw)
		}
	}
}

func TestRun_ZeroWorkersFallsBack(t *testing.T) {
	results, dropped := Run(context.Background(), descriptors(2), 0, func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
		return model.ProbeResult{}, nil
	})
	if dropped != 0 || len(results) != 2 {
		t.Fatalf("results=%d dropped=%d, want 2 and 0", len(results), dropped)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	results, dropped := Run(context.Background(), nil, 3, func(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
		t.Fatalf("probe fn called on empty input")
		return model.ProbeResult{}, nil
	})
	if len(results) != 0 || dropped != 0 {
		t.Fatalf("results=%d dropped=%d, want 0 and 0", len(results), dropped)
	}
}
