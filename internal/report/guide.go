package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// BuildUsageGuide renders USAGE.md: subscription stats, how to consume the
// artifact from NekoBox/FlClash, and deployment options.
func BuildUsageGuide(now time.Time, selected []model.ScoredNode, subFilePath string) string {
	n := len(selected)
	var b strings.Builder

	b.WriteString("# 🎯 订阅使用指南\n\n")
	b.WriteString("## 📊 订阅信息\n")
	b.WriteString(fmt.Sprintf("- 生成时间: %s\n", now.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- 节点数量: %d 个\n", n))
	if n > 0 {
		best := selected[0].Result.LatencyMS
		var sumSpeed int
		var sumScore float64
		for _, s := range selected {
			if s.Result.LatencyMS < best {
				best = s.Result.LatencyMS
			}
			sumSpeed += s.Result.SpeedKBps
			sumScore += s.Score
		}
		b.WriteString(fmt.Sprintf("- 最佳延迟: %dms\n", best))
		b.WriteString(fmt.Sprintf("- 平均速度: %.1f MB/s\n", float64(sumSpeed)/float64(n)/1024))
		b.WriteString(fmt.Sprintf("- 平均评分: %.1f\n", sumScore/float64(n)))
	}

	b.WriteString("\n## 📱 使用方法\n\n")
	b.WriteString("### 方法1: 直接使用\n")
	b.WriteString("订阅文件路径:\n")
	b.WriteString(subFilePath + "\n\n")
	b.WriteString("### 方法2: 在线部署\n")
	b.WriteString("1. 将 subscription.txt 上传到 GitHub Gist、Pastebin 或个人服务器\n")
	b.WriteString("2. 获取文件的原始链接（Raw URL）\n")
	b.WriteString("3. 在客户端中添加该链接作为订阅\n\n")
	b.WriteString("### 方法3: 免费平台部署\n")
	b.WriteString("- GitHub Pages: 上传 subscription.txt 并开启 Pages\n")
	b.WriteString("- Cloudflare Workers / Vercel: 使用 deploy_scripts/ 下的脚本\n")

	b.WriteString("\n## 📋 节点详情\n")
	for i, s := range selected {
		b.WriteString(fmt.Sprintf("%d. %s - %dms - %s - %.1f分 (%s)\n",
			i+1, s.Result.Geo.Country, s.Result.LatencyMS, formatSpeedMBps(s.Result.SpeedKBps), s.Score, s.Descriptor.Protocol))
	}

	b.WriteString("\n## ⚙️ 客户端配置建议\n")
	b.WriteString("1. NekoBox: 添加订阅 → 粘贴链接 → 自动更新\n")
	b.WriteString("2. FlClash: 订阅管理 → 添加 → 粘贴链接\n")
	b.WriteString("3. 建议开启自动选择最快节点\n")
	b.WriteString("4. 更新频率: 每6-12小时自动更新\n")

	return b.String()
}

// BuildCloudflareWorker renders a Worker script that serves the encoded
// node list at /subscribe.
func BuildCloudflareWorker(selected []model.ScoredNode) string {
	return fmt.Sprintf(`// Cloudflare Worker 部署订阅
addEventListener('fetch', event => {
  event.respondWith(handleRequest(event.request))
})

const nodes = `+"`%s`"+`

async function handleRequest(request) {
  const url = new URL(request.url)

  if (url.pathname === '/subscribe') {
    return new Response(nodes, {
      headers: {
        'Content-Type': 'text/plain;charset=UTF-8',
        'Cache-Control': 'public, max-age=3600',
        'Access-Control-Allow-Origin': '*'
      }
    })
  }

  return new Response('Subscription Service', { status: 200 })
}
`, EncodeNodeList(selected))
}

// BuildVercelFunction renders the equivalent Vercel serverless function.
func BuildVercelFunction(selected []model.ScoredNode) string {
	return fmt.Sprintf(`// Vercel Function (api/subscribe.js)
module.exports = (req, res) => {
  const nodes = `+"`%s`"+`

  res.setHeader('Content-Type', 'text/plain;charset=UTF-8')
  res.setHeader('Cache-Control', 'public, max-age=3600')
  res.setHeader('Access-Control-Allow-Origin', '*')
  res.send(nodes)
}
`, EncodeNodeList(selected))
}
