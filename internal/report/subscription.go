package report

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// BuildSubscriptionText renders the human-readable subscription artifact:
// a header comment block with aggregate statistics, then one annotation
// comment plus the verbatim raw line per selected node.
func BuildSubscriptionText(now time.Time, selected []model.ScoredNode) string {
	var (
		sumLatency int
		sumSpeed   int
		sumScore   float64
	)
	for _, s := range selected {
		sumLatency += s.Result.LatencyMS
		sumSpeed += s.Result.SpeedKBps
		sumScore += s.Score
	}
	n := len(selected)

	lines := []string{
		"# 🚀 优选节点订阅",
		fmt.Sprintf("# 生成时间: %s", now.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("# 节点数量: %d", n),
	}
	if n > 0 {
		lines = append(lines,
			fmt.Sprintf("# 平均延迟: %dms", sumLatency/n),
			fmt.Sprintf("# 平均速度: %.1f MB/s", float64(sumSpeed)/float64(n)/1024),
			fmt.Sprintf("# 平均评分: %.1f", sumScore/float64(n)),
		)
	}
	lines = append(lines, "")

	for i, s := range selected {
		lines = append(lines, fmt.Sprintf("# %d. %s | %dms | %s | %.1f分",
			i+1, s.Result.Geo.Country, s.Result.LatencyMS, formatSpeedMBps(s.Result.SpeedKBps), s.Score))
		lines = append(lines, s.Descriptor.Raw)
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// EncodeSubscription base64-encodes the whole artifact. Downstream proxy
// clients expect the encoded form; the decoded form is written alongside
// for operators.
func EncodeSubscription(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// EncodeNodeList base64-encodes just the raw lines, the payload the deploy
// snippets serve.
func EncodeNodeList(selected []model.ScoredNode) string {
	raws := make([]string, 0, len(selected))
	for _, s := range selected {
		raws = append(raws, s.Descriptor.Raw)
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(raws, "\n")))
}
