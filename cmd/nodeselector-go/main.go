package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/John-Robertt/nodeselector-go/internal/config"
	"github.com/John-Robertt/nodeselector-go/internal/pipeline"
	"github.com/John-Robertt/nodeselector-go/internal/report"
)

func main() {
	configFile := flag.String("config", "", "YAML 配置文件路径（可选）")
	subscription := flag.String("subscription", "", "在线订阅链接，多个用 & 分隔")
	nodesFile := flag.String("nodes-file", "", "本地节点文件路径")
	outputDir := flag.String("output-dir", "", "结果输出目录")
	workers := flag.Int("workers", 0, "并发测试线程数")
	timeout := flag.Int("timeout", 0, "整体测试超时（秒，记录用）")
	latencyThreshold := flag.Int("latency-threshold", 0, "延迟阈值（毫秒）")
	testCount := flag.Int("test-count", -1, "抽样测试节点数量，0 表示全部")
	topN := flag.Int("top-n", 0, "订阅保留的优选节点数量")
	speedLimit := flag.Int("speed-limit", -1, "测速总带宽上限（KB/s），0 表示不限")
	geoIPDB := flag.String("geoip-db", "", "本地 GeoIP mmdb 数据库路径")
	flag.Parse()

	cfg, err := resolveConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}

	if *subscription != "" {
		cfg.SubscriptionURLs = config.SplitSubscriptionList(*subscription)
	} else if env := os.Getenv("ONLINE_SUBSCRIPTION"); env != "" && len(cfg.SubscriptionURLs) == 0 {
		cfg.SubscriptionURLs = config.SplitSubscriptionList(env)
	}
	if *nodesFile != "" {
		cfg.NodesFile = *nodesFile
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *timeout > 0 {
		cfg.TimeoutSec = *timeout
	}
	if *latencyThreshold > 0 {
		cfg.LatencyThresholdMS = *latencyThreshold
	}
	if *testCount >= 0 {
		cfg.TestCount = *testCount
	}
	if *topN > 0 {
		cfg.TopN = *topN
	}
	if *speedLimit >= 0 {
		cfg.SpeedLimitKBps = *speedLimit
	}
	if *geoIPDB != "" {
		cfg.GeoIPDB = *geoIPDB
	}

	runner, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Printf("关闭 GeoIP 数据库失败: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if sum.Empty() {
		log.Printf("没有可测试的节点，流程结束")
		return
	}

	if len(sum.Selected) == 0 {
		log.Printf("没有节点满足筛选条件（最低评分 %.1f，最低速度 %d KB/s），仅输出测试报告", cfg.MinScore, cfg.MinSpeedKBps)
	}

	if err := report.Write(cfg.OutputDir, pipeline.BuildArtifacts(runner, sum)); err != nil {
		log.Fatal(err)
	}

	log.Printf("结果已写入 %s: 优选 %d 个节点（共测试 %d 个）", cfg.OutputDir, len(sum.Selected), sum.TestedCount)
}

func resolveConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path == "" {
		return cfg, nil
	}
	return config.LoadFile(path, cfg)
}
