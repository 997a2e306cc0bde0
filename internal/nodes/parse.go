package nodes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Grammar priority is a correctness requirement, not cosmetics: several
// grammars overlap at the character level (an ssr:// line also looks like a
// generic host:port tail), so the first match in this order wins.
var grammars = []struct {
	protocol model.Protocol
	re       *regexp.Regexp
}{
	{model.ProtocolSSR, regexp.MustCompile(`^ssr://([A-Za-z0-9+/=]+)`)},
	{model.ProtocolVMess, regexp.MustCompile(`^vmess://([A-Za-z0-9+/=]+)`)},
	{model.ProtocolTrojan, regexp.MustCompile(`^trojan://([^@]+)@([^:]+):(\d+)`)},
	{model.ProtocolVLESS, regexp.MustCompile(`^vless://([^@]+)@([^:]+):(\d+)`)},
	{model.ProtocolSS, regexp.MustCompile(`^ss://([A-Za-z0-9+/=]+)`)},
	{model.ProtocolHTTP, regexp.MustCompile(`^http://([^:]+):(\d+)`)},
	{model.ProtocolSocks5, regexp.MustCompile(`^socks5://([^:]+):(\d+)`)},
	{model.ProtocolHostPort, regexp.MustCompile(`^([^:]+):(\d+)$`)},
}

// ParseLine parses one trimmed node line into a typed descriptor. It is a
// pure function; ok=false means no grammar matched and the caller decides
// how to report the line.
func ParseLine(line string) (model.NodeDescriptor, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.NodeDescriptor{}, false
	}

	for _, g := range grammars {
		m := g.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		payload, ok := buildPayload(g.protocol, m[1:])
		if !ok {
			continue
		}
		return model.NodeDescriptor{
			Raw:      line,
			Protocol: g.protocol,
			Payload:  payload,
		}, true
	}
	return model.NodeDescriptor{}, false
}

func buildPayload(p model.Protocol, groups []string) (model.Payload, bool) {
	switch p {
	case model.ProtocolSSR, model.ProtocolVMess, model.ProtocolSS:
		return model.BlobPayload{Scheme: p, Blob: groups[0]}, true
	case model.ProtocolTrojan, model.ProtocolVLESS:
		port, err := strconv.Atoi(groups[2])
		if err != nil {
			return nil, false
		}
		return model.UserHostPayload{Scheme: p, User: groups[0], Host: groups[1], Port: port}, true
	case model.ProtocolHTTP, model.ProtocolSocks5, model.ProtocolHostPort:
		port, err := strconv.Atoi(groups[1])
		if err != nil {
			return nil, false
		}
		return model.HostPortPayload{Scheme: p, Host: groups[0], Port: port}, true
	default:
		return nil, false
	}
}

// SkippedLine reports one line of input that matched no grammar. Line is
// 1-based; Snippet is truncated for log output.
type SkippedLine struct {
	Line    int
	Snippet string
}

// ParseList parses a whole node list. Blank lines and '#' comments are
// skipped silently; unparsable lines are returned as SkippedLine values so
// the caller can log them. ParseList never fails: a list where nothing
// parses yields an empty slice.
func ParseList(content string, source model.Source) ([]model.NodeDescriptor, []SkippedLine) {
	content = stripUTF8BOM(content)
	lines := strings.Split(content, "\n")

	out := make([]model.NodeDescriptor, 0, len(lines))
	var skipped []SkippedLine
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, ok := ParseLine(line)
		if !ok {
			skipped = append(skipped, SkippedLine{Line: i + 1, Snippet: truncateSnippet(line, 50)})
			continue
		}
		d.Source = source
		out = append(out, d)
	}
	return out, skipped
}

func stripUTF8BOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	return s
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
