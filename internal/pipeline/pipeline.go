// Package pipeline wires the full run: load and merge node lists, probe
// under the worker bound, score, rank, and assemble artifacts.
package pipeline

import (
	"context"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/juju/ratelimit"

	"github.com/John-Robertt/nodeselector-go/internal/config"
	"github.com/John-Robertt/nodeselector-go/internal/fetch"
	"github.com/John-Robertt/nodeselector-go/internal/geo"
	"github.com/John-Robertt/nodeselector-go/internal/model"
	"github.com/John-Robertt/nodeselector-go/internal/nodes"
	"github.com/John-Robertt/nodeselector-go/internal/probe"
	"github.com/John-Robertt/nodeselector-go/internal/rank"
	"github.com/John-Robertt/nodeselector-go/internal/report"
	"github.com/John-Robertt/nodeselector-go/internal/sched"
	"github.com/John-Robertt/nodeselector-go/internal/score"
	"github.com/John-Robertt/nodeselector-go/internal/sub"
)

// How many nodes the report's preferred list keeps, independent of the
// stricter subscription top-N.
const preferredLimit = 20

// Runner holds one run's collaborators. Construct with New for production
// wiring; tests build the struct directly and inject fakes.
type Runner struct {
	Config    config.Config
	Engine    *probe.Engine
	Endpoints []probe.Endpoint
	FetchText func(ctx context.Context, url string) (string, error)
	Rand      *rand.Rand
	Now       func() time.Time
	Sleep     func(time.Duration)

	mmdb *geo.MMDBResolver
}

// New builds a production Runner from configuration. The returned Runner
// must be Closed after the run when a GeoIP database is configured.
func New(cfg config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		Config:    cfg,
		Endpoints: probe.DefaultEndpoints(),
		FetchText: fetch.FetchText,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:       time.Now,
		Sleep:     time.Sleep,
	}

	var resolver geo.Resolver
	if cfg.GeoIPDB != "" {
		mmdb, err := geo.OpenMMDB(cfg.GeoIPDB)
		if err != nil {
			return nil, err
		}
		r.mmdb = mmdb
		resolver = mmdb
	} else {
		resolver = geo.NewHTTPResolver(nil)
	}
	cache, err := geo.NewCache(resolver, cfg.GeoCacheSize)
	if err != nil {
		return nil, err
	}

	var bucket *ratelimit.Bucket
	if cfg.SpeedLimitKBps > 0 {
		rate := float64(cfg.SpeedLimitKBps) * 1024
		bucket = ratelimit.NewBucketWithRate(rate, int64(rate))
	}

	r.Engine = probe.New(probe.Config{
		Endpoints:   r.Endpoints,
		Geo:         cache,
		Bucket:      bucket,
		ThresholdMS: cfg.LatencyThresholdMS,
	})
	return r, nil
}

func (r *Runner) Close() error {
	if r.mmdb != nil {
		return r.mmdb.Close()
	}
	return nil
}

// Summary is everything a caller needs to write artifacts and print the
// run outcome.
type Summary struct {
	RunID       string
	LocalCount  int
	SubCount    int
	UniqueCount int
	TestedCount int
	Dropped     int

	Sorted    []model.ScoredNode
	Preferred []model.ScoredNode
	Selected  []model.ScoredNode

	Report report.Report
}

// Empty reports whether the run found nothing to test. That is a soft
// failure: callers print it, they do not abort with a non-zero exit.
func (s *Summary) Empty() bool { return s.TestedCount == 0 }

// Run executes the whole pipeline. Degradation is built in at every step:
// unreadable local files, dead subscriptions, unparsable lines and failed
// probes each shrink the result set instead of failing the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	descriptors, localCount, subCount := r.loadAll(ctx)

	if r.Config.TestCount > 0 && len(descriptors) > r.Config.TestCount {
		log.Printf("抽样测试: 从 %d 个节点中随机选择 %d 个", len(descriptors), r.Config.TestCount)
	}
	unique := len(descriptors)
	descriptors = nodes.Sample(descriptors, r.Config.TestCount, r.Rand)

	sum := &Summary{
		RunID:       uuid.NewString(),
		LocalCount:  localCount,
		SubCount:    subCount,
		UniqueCount: unique,
		TestedCount: len(descriptors),
	}
	if len(descriptors) == 0 {
		log.Printf("没有找到可测试的节点")
		return sum, nil
	}

	log.Printf("开始节点测试: %d 个节点, 并发 %d", len(descriptors), r.Config.Workers)

	outcomes, dropped := sched.Run(ctx, descriptors, r.Config.Workers, r.Engine.Run)
	sum.Dropped = dropped

	scored := make([]model.ScoredNode, 0, len(outcomes))
	for _, o := range outcomes {
		scored = append(scored, model.ScoredNode{
			Descriptor: o.Descriptor,
			Result:     o.Result,
			Score:      score.Score(o.Result.LatencyMS, o.Result.SpeedKBps, o.Result.LatencyPassed),
		})
	}

	sum.Sorted = rank.Sort(scored)
	sum.Preferred = rank.Preferred(sum.Sorted, preferredLimit)
	sum.Selected = rank.Select(sum.Sorted, r.Config.MinScore, r.Config.MinSpeedKBps, r.Config.TopN)

	sum.Report = report.Build(sum.RunID, r.Now(), sum.TestedCount, sum.Sorted, sum.Preferred, report.TestConfig{
		Endpoints:          r.Endpoints,
		TimeoutSec:         r.Config.TimeoutSec,
		LatencyThresholdMS: r.Config.LatencyThresholdMS,
		Workers:            r.Config.Workers,
	})

	log.Printf("测试完成: 通过延迟测试 %d/%d, 完成测速 %d, 丢弃 %d",
		sum.Report.PassedLatencyTest, sum.TestedCount, sum.Report.SpeedTested, dropped)
	return sum, nil
}

// loadAll reads the local list, then each subscription feed, and merges
// with local-first precedence.
func (r *Runner) loadAll(ctx context.Context) (merged []model.NodeDescriptor, localCount, subCount int) {
	local := r.loadLocal()
	log.Printf("本地节点: %d 个", len(local))

	var subscription []model.NodeDescriptor
	for i, url := range r.Config.SubscriptionURLs {
		if i > 0 {
			// Be polite to subscription hosts between fetches.
			r.Sleep(time.Second)
		}
		content, err := r.FetchText(ctx, url)
		if err != nil {
			log.Printf("获取订阅失败 [%s]: %v", url, err)
			continue
		}
		parsed, skipped := sub.Parse(content)
		logSkipped(url, skipped)
		log.Printf("从订阅获取节点: %d 个 [%s]", len(parsed), url)
		subscription = append(subscription, parsed...)
	}

	return nodes.Merge(local, subscription), len(local), len(subscription)
}

func (r *Runner) loadLocal() []model.NodeDescriptor {
	content, err := os.ReadFile(r.Config.NodesFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("节点文件 %s 不存在", r.Config.NodesFile)
		} else {
			log.Printf("读取节点文件失败: %v", err)
		}
		return nil
	}
	parsed, skipped := nodes.ParseList(string(content), model.SourceLocal)
	logSkipped(r.Config.NodesFile, skipped)
	return parsed
}

func logSkipped(source string, skipped []nodes.SkippedLine) {
	for _, s := range skipped {
		log.Printf("第%d行无法解析 [%s]: %s...", s.Line, source, s.Snippet)
	}
}

// BuildArtifacts renders every output file's content for a finished run.
func BuildArtifacts(r *Runner, sum *Summary) report.Artifacts {
	now := r.Now()
	subText := report.BuildSubscriptionText(now, sum.Selected)

	clashCfg, skipped, err := report.RenderClash(sum.Selected)
	if err != nil {
		log.Printf("Clash 配置未生成: %v", err)
	} else if skipped > 0 {
		log.Printf("Clash 配置跳过 %d 个不可渲染节点", skipped)
	}

	return report.Artifacts{
		Report:           sum.Report,
		SubscriptionText: subText,
		UsageGuide:       report.BuildUsageGuide(now, sum.Selected, "subscription.txt"),
		CloudflareWorker: report.BuildCloudflareWorker(sum.Selected),
		VercelFunction:   report.BuildVercelFunction(sum.Selected),
		ClashConfig:      clashCfg,
	}
}
