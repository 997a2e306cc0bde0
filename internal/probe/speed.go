package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/juju/ratelimit"
)

const interURLPause = 500 * time.Millisecond

// measureSpeed runs the throughput protocol: pick a payload size from the
// accepted latency, then try each download URL in order. The first
// successful, non-empty download wins outright; measurements are never
// averaged across URLs. 0 means every URL failed, which is not an error
// condition for the probe.
func (e *Engine) measureSpeed(ctx context.Context, latencyMS int) int {
	size := payloadSize(latencyMS)

	for _, url := range e.speedURLs(size) {
		if ctx.Err() != nil {
			return 0
		}

		kbps, ok := e.timeDownload(ctx, url)
		if ok {
			return kbps
		}
		e.sleep(interURLPause)
	}
	return 0
}

func (e *Engine) timeDownload(ctx context.Context, url string) (kbps int, ok bool) {
	reqCtx, cancel := context.WithTimeout(ctx, e.speedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, false
	}

	// The shared bucket caps aggregate download bandwidth across all
	// workers so a probe run does not saturate the tester's own uplink.
	var body io.Reader = resp.Body
	if e.bucket != nil {
		body = ratelimit.Reader(resp.Body, e.bucket)
	}

	// Time from request start to last byte; partial downloads are discarded.
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return 0, false
	}
	elapsed := time.Since(start).Seconds()
	if n <= 0 || elapsed <= 0 {
		return 0, false
	}
	return int(float64(n) / elapsed / 1024), true
}
