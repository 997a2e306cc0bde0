package model

// AppError is the structured error payload shared by every stage of the
// pipeline. Stage names the phase that produced it (parse_nodes, fetch_sub,
// probe_latency, probe_speed, geo, report, ...).
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty"`
}
