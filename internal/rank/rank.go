// Package rank orders scored nodes and cuts the published subset.
package rank

import (
	"sort"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Sort orders nodes descending by score. The sort is stable and the input
// arrives in probe-completion order, so equal scores keep that order — an
// intentional, testable tie-break.
func Sort(nodes []model.ScoredNode) []model.ScoredNode {
	out := make([]model.ScoredNode, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Preferred filters sorted nodes to those with a positive score and
// truncates to n. It feeds the report's preferred_nodes list.
func Preferred(sorted []model.ScoredNode, n int) []model.ScoredNode {
	out := make([]model.ScoredNode, 0, n)
	for _, s := range sorted {
		if s.Score <= 0 {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

// Select cuts the subscription subset from sorted nodes: latency must have
// passed, the score must clear minScore, throughput must clear minSpeed,
// and at most topN survive. The subscription artifact demands more than
// the report does because downstream clients consume it blind.
func Select(sorted []model.ScoredNode, minScore float64, minSpeed int, topN int) []model.ScoredNode {
	out := make([]model.ScoredNode, 0, topN)
	for _, s := range sorted {
		if !s.Result.LatencyPassed {
			continue
		}
		if s.Score <= minScore {
			continue
		}
		if s.Result.SpeedKBps <= minSpeed {
			continue
		}
		out = append(out, s)
		if topN > 0 && len(out) == topN {
			break
		}
	}
	return out
}
