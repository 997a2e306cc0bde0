package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Early exit: a response this fast is good enough, further endpoints only
// burn time and test-service quota.
const earlyExitMS = 100

// Pause between endpoint attempts that did not trigger the early exit, so
// the shared test services are not hammered.
const interAttemptPause = 300 * time.Millisecond

// measureLatency walks the endpoint table in order. Every attempt is
// recorded; a request error becomes a -1 attempt and the loop continues.
// fastest is the minimum-latency attempt whose status matched and whose
// latency beat the threshold, or nil when no attempt qualified.
func (e *Engine) measureLatency(ctx context.Context) (fastest *model.LatencyAttempt, attempts []model.LatencyAttempt) {
	attempts = make([]model.LatencyAttempt, 0, len(e.endpoints))

	for _, ep := range e.endpoints {
		if ctx.Err() != nil {
			return fastest, attempts
		}

		latency, status, err := e.timeRequest(ctx, ep.URL)
		if err != nil {
			attempts = append(attempts, model.LatencyAttempt{
				Endpoint:  ep.Name,
				LatencyMS: -1,
				Status:    0,
				Success:   false,
				Weight:    ep.Weight,
			})
			continue
		}

		a := model.LatencyAttempt{
			Endpoint:  ep.Name,
			LatencyMS: latency,
			Status:    status,
			Success:   status == ep.ExpectedStatus,
			Weight:    ep.Weight,
		}
		attempts = append(attempts, a)

		if a.Success && latency < e.thresholdMS {
			if fastest == nil || latency < fastest.LatencyMS {
				cp := a
				fastest = &cp
			}
		}

		// A very fast response ends the protocol whether or not the status
		// matched; assume the measurement is representative.
		if latency < earlyExitMS {
			break
		}

		e.sleep(interAttemptPause)
	}
	return fastest, attempts
}

// timeRequest issues one GET and measures wall clock until the full body is
// consumed, matching how a blocking client experiences the endpoint.
func (e *Engine) timeRequest(ctx context.Context, url string) (latencyMS int, status int, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.latencyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return -1, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return -1, 0, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return -1, 0, err
	}
	return int(time.Since(start).Milliseconds()), resp.StatusCode, nil
}
