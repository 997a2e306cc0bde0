package probe

import "fmt"

// Endpoint is one latency test target. Weight is recorded into results for
// forward compatibility but does not participate in scoring yet.
type Endpoint struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	ExpectedStatus int     `json:"expected_status"`
	Weight         float64 `json:"weight"`
}

// DefaultEndpoints returns the latency targets in probe order. Order
// matters: the early-exit rule stops at the first sub-100ms response, so
// the cheapest and most reliable target goes first.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{Name: "Google Static", URL: "https://www.gstatic.com/generate_204", ExpectedStatus: 204, Weight: 1.0},
		{Name: "HttpBin", URL: "https://httpbin.org/get", ExpectedStatus: 200, Weight: 0.9},
		{Name: "Cloudflare", URL: "https://www.cloudflare.com/cdn-cgi/trace", ExpectedStatus: 200, Weight: 0.8},
		{Name: "GitHub", URL: "https://api.github.com", ExpectedStatus: 200, Weight: 0.7},
	}
}

// DefaultSpeedURLs returns the download targets for a given payload size,
// tried in order until one produces a non-empty body: a byte-size generator
// first, then static large-file mirrors as fallback.
func DefaultSpeedURLs(size int) []string {
	return []string{
		fmt.Sprintf("https://httpbin.org/bytes/%d", size),
		"https://speedtest.ftp.otenet.gr/files/test1Mb.db",
		"https://proof.ovh.net/files/1Mb.dat",
	}
}

// payloadSize maps the accepted latency to a download size: a fast control
// RTT is assumed to indicate a link worth testing with a larger payload.
func payloadSize(latencyMS int) int {
	switch {
	case latencyMS < 200:
		return 512000
	case latencyMS < 500:
		return 256000
	default:
		return 102400
	}
}
