package model

// GeoInfo is the geolocation of the measurement path. Lookup failures
// collapse to UnknownGeo; the pipeline never blocks on geo.
type GeoInfo struct {
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	IP      string `json:"ip"`
}

// UnknownGeo is the all-"Unknown" fallback used whenever a lookup fails.
func UnknownGeo() GeoInfo {
	return GeoInfo{Country: "Unknown", City: "Unknown", ISP: "Unknown", IP: "Unknown"}
}

// LatencyAttempt records one endpoint attempt of the latency protocol.
// LatencyMS is -1 when the request errored before producing a timing.
type LatencyAttempt struct {
	Endpoint  string  `json:"endpoint"`
	LatencyMS int     `json:"latency_ms"`
	Status    int     `json:"status"`
	Success   bool    `json:"success"`
	Weight    float64 `json:"weight"`
}

// ProbeResult is the measurement for one descriptor, immutable after the
// probe engine returns it.
//
// The latency/throughput numbers describe the tester's own connectivity to
// fixed endpoints, not a tunneled path through the node. That is the
// documented behavior of this system, not an oversight.
type ProbeResult struct {
	// LatencyMS is the fastest successful round trip in milliseconds, or -1
	// when no endpoint produced an accepted timing.
	LatencyMS int `json:"latency_ms"`

	// LatencyPassed reports whether at least one endpoint returned its
	// expected status under the configured threshold.
	LatencyPassed bool `json:"latency_passed"`

	// SpeedKBps is the measured download throughput in KB/s. 0 means the
	// throughput protocol was skipped or every download URL failed.
	SpeedKBps int `json:"speed_kbps"`

	// Endpoint names the test endpoint that produced the accepted latency
	// measurement; empty when none did.
	Endpoint string `json:"endpoint"`

	// Attempts is the full latency attempt log, in attempt order.
	Attempts []LatencyAttempt `json:"attempts,omitempty"`

	Geo GeoInfo `json:"geo"`
}

// ScoredNode pairs a descriptor with its measurement and composite score.
type ScoredNode struct {
	Descriptor NodeDescriptor
	Result     ProbeResult

	// Score is in [0,100], one decimal place.
	Score float64
}
