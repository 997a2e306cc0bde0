// Package probe measures one node's reachability and throughput.
//
// Measurements are taken against fixed third-party endpoints over the
// tester's own network path; no tunnel through the node is established.
// The scores built on top of these numbers must be read accordingly.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/juju/ratelimit"

	"github.com/John-Robertt/nodeselector-go/internal/model"
	"github.com/John-Robertt/nodeselector-go/internal/nodes"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// GeoLookup resolves a host (or, when host is empty, the caller's own
// egress IP) to a location. Implementations must not fail: they return the
// all-Unknown value instead.
type GeoLookup interface {
	Lookup(ctx context.Context, host string) model.GeoInfo
}

// Engine runs the latency and throughput protocols for one descriptor at a
// time. The zero value is not usable; construct with New.
type Engine struct {
	client    *http.Client
	endpoints []Endpoint
	speedURLs func(size int) []string
	sleep     func(time.Duration)
	geo       GeoLookup
	bucket    *ratelimit.Bucket

	// thresholdMS gates both what counts as an accepted latency measurement
	// and whether the throughput protocol runs at all.
	thresholdMS int

	latencyTimeout time.Duration
	speedTimeout   time.Duration
}

// Config carries the injectable parts of an Engine. Zero fields fall back
// to production defaults; tests override Client, Sleep and the tables.
type Config struct {
	Client      *http.Client
	Endpoints   []Endpoint
	SpeedURLs   func(size int) []string
	Sleep       func(time.Duration)
	Geo         GeoLookup
	Bucket      *ratelimit.Bucket
	ThresholdMS int

	LatencyTimeout time.Duration
	SpeedTimeout   time.Duration
}

func New(cfg Config) *Engine {
	e := &Engine{
		client:         cfg.Client,
		endpoints:      cfg.Endpoints,
		speedURLs:      cfg.SpeedURLs,
		sleep:          cfg.Sleep,
		geo:            cfg.Geo,
		bucket:         cfg.Bucket,
		thresholdMS:    cfg.ThresholdMS,
		latencyTimeout: cfg.LatencyTimeout,
		speedTimeout:   cfg.SpeedTimeout,
	}
	if e.client == nil {
		e.client = &http.Client{Transport: http.DefaultTransport}
	}
	if e.endpoints == nil {
		e.endpoints = DefaultEndpoints()
	}
	if e.speedURLs == nil {
		e.speedURLs = DefaultSpeedURLs
	}
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	if e.thresholdMS <= 0 {
		e.thresholdMS = 2000
	}
	if e.latencyTimeout <= 0 {
		e.latencyTimeout = 8 * time.Second
	}
	if e.speedTimeout <= 0 {
		e.speedTimeout = 15 * time.Second
	}
	return e
}

type ProbeError struct {
	AppError model.AppError
	Cause    error
}

func (e *ProbeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

// Run executes the full probe for one descriptor: latency protocol, then
// geo lookup and the throughput protocol when latency passed. Individual
// endpoint failures are data (recorded as failed attempts), not errors;
// Run only errors when the surrounding context is cancelled.
func (e *Engine) Run(ctx context.Context, d model.NodeDescriptor) (model.ProbeResult, error) {
	fastest, attempts := e.measureLatency(ctx)

	res := model.ProbeResult{
		LatencyMS: -1,
		Attempts:  attempts,
		Geo:       model.UnknownGeo(),
	}

	if err := ctx.Err(); err != nil {
		return model.ProbeResult{}, &ProbeError{
			AppError: model.AppError{
				Code:    "PROBE_CANCELLED",
				Message: "节点测试被取消",
				Stage:   "probe",
				Snippet: string(d.Protocol),
			},
			Cause: err,
		}
	}

	if fastest == nil {
		// Latency never passed; the node keeps a -1 latency and scores 0.
		return res, nil
	}

	res.LatencyPassed = true
	res.LatencyMS = fastest.LatencyMS
	res.Endpoint = fastest.Endpoint

	if e.geo != nil {
		host, _ := nodes.ExtractHost(d)
		res.Geo = e.geo.Lookup(ctx, host)
	}

	// Second guard, independent of the pass above: too slow to bother
	// downloading even though an endpoint technically answered in time.
	if res.LatencyMS < e.thresholdMS {
		res.SpeedKBps = e.measureSpeed(ctx, res.LatencyMS)
	}
	return res, nil
}
