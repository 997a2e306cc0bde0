package report

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/nodeselector-go/internal/model"
	"github.com/John-Robertt/nodeselector-go/internal/nodes"
)

type RenderError struct {
	AppError model.AppError
	Cause    error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

type clashProxy struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Cipher   string `yaml:"cipher"`
	Password string `yaml:"password"`
}

type clashGroup struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Proxies  []string `yaml:"proxies"`
	URL      string   `yaml:"url,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
}

type clashConfig struct {
	Proxies     []clashProxy `yaml:"proxies"`
	ProxyGroups []clashGroup `yaml:"proxy-groups"`
}

// RenderClash emits a minimal Clash configuration for the ss:// subset of
// the selected nodes. Other protocols carry opaque payloads this renderer
// cannot expand; they are counted and skipped, not errors — the
// subscription artifact still carries them verbatim.
func RenderClash(selected []model.ScoredNode) (config string, skipped int, err error) {
	proxies := make([]clashProxy, 0, len(selected))
	used := make(map[string]struct{}, len(selected))

	for _, s := range selected {
		if s.Descriptor.Protocol != model.ProtocolSS {
			skipped++
			continue
		}
		ssn, decErr := nodes.DecodeSS(s.Descriptor.Raw)
		if decErr != nil {
			skipped++
			continue
		}

		base := strings.TrimSpace(ssn.Name)
		if base == "" {
			base = fmt.Sprintf("%s | %dms | %.1f分", s.Result.Geo.Country, s.Result.LatencyMS, s.Score)
		}
		proxies = append(proxies, clashProxy{
			Name:     uniqueName(base, used),
			Type:     "ss",
			Server:   ssn.Server,
			Port:     ssn.Port,
			Cipher:   strings.ToLower(ssn.Cipher),
			Password: ssn.Password,
		})
	}

	if len(proxies) == 0 {
		return "", skipped, &RenderError{
			AppError: model.AppError{
				Code:    "RENDER_EMPTY",
				Message: "没有可渲染为 Clash 配置的 ss 节点",
				Stage:   "report",
			},
		}
	}

	names := make([]string, 0, len(proxies))
	for _, p := range proxies {
		names = append(names, p.Name)
	}

	cfg := clashConfig{
		Proxies: proxies,
		ProxyGroups: []clashGroup{
			{
				Name:     "自动选择",
				Type:     "url-test",
				Proxies:  names,
				URL:      "https://www.gstatic.com/generate_204",
				Interval: 300,
			},
			{
				Name:    "节点选择",
				Type:    "select",
				Proxies: append([]string{"自动选择"}, names...),
			},
		},
	}

	out, mErr := yaml.Marshal(cfg)
	if mErr != nil {
		return "", skipped, &RenderError{
			AppError: model.AppError{
				Code:    "RENDER_FAILED",
				Message: "Clash 配置序列化失败",
				Stage:   "report",
			},
			Cause: mErr,
		}
	}
	return string(out), skipped, nil
}

// uniqueName disambiguates duplicate node names with a -N suffix starting
// from 2, keeping the first occurrence unsuffixed.
func uniqueName(base string, used map[string]struct{}) string {
	name := base
	if _, ok := used[name]; ok {
		for n := 2; ; n++ {
			try := fmt.Sprintf("%s-%d", base, n)
			if _, ok := used[try]; !ok {
				name = try
				break
			}
		}
	}
	used[name] = struct{}{}
	return name
}
