package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

func noSleep(time.Duration) {}

func descriptor(t *testing.T, line string) model.NodeDescriptor {
	t.Helper()
	return model.NodeDescriptor{Raw: line, Protocol: model.ProtocolHostPort, Source: model.SourceLocal,
		Payload: model.HostPortPayload{Scheme: model.ProtocolHostPort, Host: "example.com", Port: 443}}
}

func TestRun_LatencyPassAndSpeed(t *testing.T) {
	latencySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer latencySrv.Close()
	speedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64*1024))
	}))
	defer speedSrv.Close()

	e := New(Config{
		Endpoints: []Endpoint{{Name: "local", URL: latencySrv.URL, ExpectedStatus: 204, Weight: 1.0}},
		SpeedURLs: func(size int) []string { return []string{speedSrv.URL} },
		Sleep:     noSleep,
	})

	res, err := e.Run(context.Background(), descriptor(t, "example.com:443"))
	if err != nil {
		t.Fatalf("Run unexpected err: %v", err)
	}
	if !res.LatencyPassed {
		t.Fatalf("LatencyPassed=false, want=true")
	}
	if res.LatencyMS < 0 {
		t.Fatalf("LatencyMS=%d, want >= 0", res.LatencyMS)
	}
	if res.Endpoint != "local" {
		t.Fatalf("Endpoint=%q, want=%q", res.Endpoint, "local")
	}
	if res.SpeedKBps <= 0 {
		t.Fatalf("SpeedKBps=%d, want > 0", res.SpeedKBps)
	}
	if len(res.Attempts) != 1 || !res.Attempts[0].Success {
		t.Fatalf("attempts=%+v, want one successful attempt", res.Attempts)
	}
}

// A sub-100ms response ends the latency protocol; later endpoints must not
// be contacted.
func TestMeasureLatency_EarlyExit(t *testing.T) {
	var second atomic.Int32
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer fast.Close()
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer other.Close()

	e := New(Config{
		Endpoints: []Endpoint{
			{Name: "fast", URL: fast.URL, ExpectedStatus: 204, Weight: 1.0},
			{Name: "other", URL: other.URL, ExpectedStatus: 200, Weight: 0.9},
		},
		Sleep: noSleep,
	})

	fastest, attempts := e.measureLatency(context.Background())
	if fastest == nil {
		t.Fatalf("fastest=nil, want attempt from %q", "fast")
	}
	if fastest.Endpoint != "fast" {
		t.Fatalf("fastest.Endpoint=%q, want=%q", fastest.Endpoint, "fast")
	}
	if len(attempts) != 1 {
		t.Fatalf("len(attempts)=%d, want=1 (early exit)", len(attempts))
	}
	if n := second.Load(); n != 0 {
		t.Fatalf("second endpoint contacted %d times, want=0", n)
	}
}

func TestMeasureLatency_ErrorBecomesMinusOneAttempt(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close() // refused connection from now on
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()

	e := New(Config{
		Endpoints: []Endpoint{
			{Name: "dead", URL: dead.URL, ExpectedStatus: 200, Weight: 1.0},
			{Name: "ok", URL: ok.URL, ExpectedStatus: 204, Weight: 0.9},
		},
		Sleep: noSleep,
	})

	fastest, attempts := e.measureLatency(context.Background())
	if len(attempts) != 2 {
		t.Fatalf("len(attempts)=%d, want=2", len(attempts))
	}
	if attempts[0].LatencyMS != -1 || attempts[0].Success {
		t.Fatalf("attempts[0]=%+v, want -1 failed attempt", attempts[0])
	}
	if fastest == nil || fastest.Endpoint != "ok" {
		t.Fatalf("fastest=%+v, want the %q endpoint", fastest, "ok")
	}
}

func TestMeasureLatency_StatusMismatchDoesNotPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	e := New(Config{
		Endpoints: []Endpoint{{Name: "blocked", URL: srv.URL, ExpectedStatus: 204, Weight: 1.0}},
		Sleep:     noSleep,
	})

	fastest, attempts := e.measureLatency(context.Background())
	if fastest != nil {
		t.Fatalf("fastest=%+v, want nil on status mismatch", fastest)
	}
	if len(attempts) != 1 || attempts[0].Success {
		t.Fatalf("attempts=%+v, want one failed attempt", attempts)
	}
	if attempts[0].Status != http.StatusForbidden {
		t.Fatalf("status=%d, want=%d", attempts[0].Status, http.StatusForbidden)
	}
}

func TestRun_NoAcceptedLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var speedCalled atomic.Int32
	e := New(Config{
		Endpoints: []Endpoint{{Name: "blocked", URL: srv.URL, ExpectedStatus: 204, Weight: 1.0}},
		SpeedURLs: func(size int) []string {
			speedCalled.Add(1)
			return nil
		},
		Sleep: noSleep,
	})

	res, err := e.Run(context.Background(), descriptor(t, "example.com:443"))
	if err != nil {
		t.Fatalf("Run unexpected err: %v", err)
	}
	if res.LatencyPassed {
		t.Fatalf("LatencyPassed=true, want=false")
	}
	if res.LatencyMS != -1 {
		t.Fatalf("LatencyMS=%d, want=-1", res.LatencyMS)
	}
	if res.SpeedKBps != 0 {
		t.Fatalf("SpeedKBps=%d, want=0", res.SpeedKBps)
	}
	if n := speedCalled.Load(); n != 0 {
		t.Fatalf("speed protocol ran %d times, want=0", n)
	}
	if res.Geo != model.UnknownGeo() {
		t.Fatalf("geo=%+v, want all-Unknown", res.Geo)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(Config{
		Endpoints: []Endpoint{{Name: "x", URL: "http://127.0.0.1:0", ExpectedStatus: 200, Weight: 1.0}},
		Sleep:     noSleep,
	})

	_, err := e.Run(ctx, descriptor(t, "example.com:443"))
	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("err type=%T, want *ProbeError", err)
	}
	if pe.AppError.Code != "PROBE_CANCELLED" {
		t.Fatalf("code=%q, want=%q", pe.AppError.Code, "PROBE_CANCELLED")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want wraps context.Canceled", err)
	}
}

// The first URL that produces a non-empty 2xx body wins; later URLs are
// never tried.
func TestMeasureSpeed_FirstSuccessWins(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 32*1024))
	}))
	defer good.Close()
	var never atomic.Int32
	spare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		never.Add(1)
		_, _ = w.Write(make([]byte, 32*1024))
	}))
	defer spare.Close()

	e := New(Config{
		Endpoints: []Endpoint{},
		SpeedURLs: func(size int) []string { return []string{bad.URL, good.URL, spare.URL} },
		Sleep:     noSleep,
	})

	kbps := e.measureSpeed(context.Background(), 100)
	if kbps <= 0 {
		t.Fatalf("kbps=%d, want > 0", kbps)
	}
	if n := never.Load(); n != 0 {
		t.Fatalf("third URL contacted %d times, want=0", n)
	}
}

func TestMeasureSpeed_AllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	e := New(Config{
		SpeedURLs: func(size int) []string { return []string{bad.URL, bad.URL} },
		Sleep:     noSleep,
	})

	if kbps := e.measureSpeed(context.Background(), 100); kbps != 0 {
		t.Fatalf("kbps=%d, want=0", kbps)
	}
}

func TestPayloadSize(t *testing.T) {
	tests := []struct {
		latencyMS int
		want      int
	}{
		{50, 512000},
		{199, 512000},
		{200, 256000},
		{499, 256000},
		{500, 102400},
		{1999, 102400},
	}
	for _, tt := range tests {
		if got := payloadSize(tt.latencyMS); got != tt.want {
			t.Fatalf("payloadSize(%d)=%d, want=%d", tt.latencyMS, got, tt.want)
		}
	}
}

func TestDefaultEndpoints_OrderAndWeights(t *testing.T) {
	eps := DefaultEndpoints()
	if len(eps) != 4 {
		t.Fatalf("len=%d, want=4", len(eps))
	}
	if eps[0].Name != "Google Static" || eps[0].ExpectedStatus != 204 {
		t.Fatalf("eps[0]=%+v, want Google Static / 204 first", eps[0])
	}
	for i := 1; i < len(eps); i++ {
		if eps[i].Weight >= eps[i-1].Weight {
			t.Fatalf("weights not strictly decreasing at %d: %v >= %v", i, eps[i].Weight, eps[i-1].Weight)
		}
	}
}
