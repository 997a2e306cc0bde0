// Package report serializes a finished run: the machine-readable results
// JSON, the subscription artifact in both forms, the operator guide, and a
// Clash configuration for clients that want one.
package report

import (
	"fmt"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
	"github.com/John-Robertt/nodeselector-go/internal/probe"
)

// NodeResult is the flat JSON view of one scored node. Raw re-emits the
// original descriptor line verbatim.
type NodeResult struct {
	Node          string         `json:"node"`
	Type          model.Protocol `json:"type"`
	Source        model.Source   `json:"source"`
	LatencyMS     int            `json:"latency_ms"`
	LatencyPassed bool           `json:"latency_passed"`
	SpeedKBps     int            `json:"speed_kbps"`
	Endpoint      string         `json:"endpoint,omitempty"`
	Country       string         `json:"country"`
	City          string         `json:"city"`
	ISP           string         `json:"isp"`
	Score         float64        `json:"score"`
}

// TestConfig echoes the knobs the run used, so a stored results file is
// interpretable on its own.
type TestConfig struct {
	Endpoints          []probe.Endpoint `json:"urls"`
	TimeoutSec         int              `json:"timeout"`
	LatencyThresholdMS int              `json:"latency_threshold"`
	Workers            int              `json:"workers"`
}

// Report is the results artifact schema.
type Report struct {
	RunID             string       `json:"run_id"`
	Timestamp         string       `json:"timestamp"`
	TotalTested       int          `json:"total_tested"`
	PassedLatencyTest int          `json:"passed_latency_test"`
	SpeedTested       int          `json:"speed_tested"`
	PreferredNodes    []NodeResult `json:"preferred_nodes"`
	AllResults        []NodeResult `json:"all_results"`
	TestConfig        TestConfig   `json:"test_config"`
}

// Build assembles the report from the score-sorted result set. totalTested
// counts descriptors handed to the scheduler, including ones whose probe
// was dropped.
func Build(runID string, now time.Time, totalTested int, sorted []model.ScoredNode, preferred []model.ScoredNode, cfg TestConfig) Report {
	passed := 0
	speedTested := 0
	for _, s := range sorted {
		if s.Result.LatencyPassed {
			passed++
		}
		if s.Result.SpeedKBps > 0 {
			speedTested++
		}
	}

	return Report{
		RunID:             runID,
		Timestamp:         now.Format(time.RFC3339),
		TotalTested:       totalTested,
		PassedLatencyTest: passed,
		SpeedTested:       speedTested,
		PreferredNodes:    toNodeResults(preferred),
		AllResults:        toNodeResults(sorted),
		TestConfig:        cfg,
	}
}

func toNodeResults(in []model.ScoredNode) []NodeResult {
	out := make([]NodeResult, 0, len(in))
	for _, s := range in {
		out = append(out, NodeResult{
			Node:          s.Descriptor.Raw,
			Type:          s.Descriptor.Protocol,
			Source:        s.Descriptor.Source,
			LatencyMS:     s.Result.LatencyMS,
			LatencyPassed: s.Result.LatencyPassed,
			SpeedKBps:     s.Result.SpeedKBps,
			Endpoint:      s.Result.Endpoint,
			Country:       s.Result.Geo.Country,
			City:          s.Result.Geo.City,
			ISP:           s.Result.Geo.ISP,
			Score:         s.Score,
		})
	}
	return out
}

func formatSpeedMBps(kbps int) string {
	return fmt.Sprintf("%.1fMB/s", float64(kbps)/1024)
}
