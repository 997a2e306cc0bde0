package nodes

import (
	"encoding/base64"
	"regexp"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Host extraction patterns for decoded base64 blobs, tried in order:
// vmess JSON, key=value parameter style, userinfo@host, then any bare
// domain-looking token.
var hostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"add":"([^"]+)"`),
	regexp.MustCompile(`server=([^&]+)`),
	regexp.MustCompile(`@([^:]+):`),
	regexp.MustCompile(`([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
}

// ExtractHost recovers a server host from a descriptor's payload, decoding
// blob protocols on demand. ok=false means the payload held nothing
// host-shaped; that is not an error, geo lookup just falls back to the
// caller's own egress IP.
func ExtractHost(d model.NodeDescriptor) (string, bool) {
	switch p := d.Payload.(type) {
	case model.UserHostPayload:
		return p.Host, true
	case model.HostPortPayload:
		return p.Host, true
	case model.BlobPayload:
		decoded, err := decodeB64ToBytes(p.Blob)
		if err != nil {
			return "", false
		}
		for _, re := range hostPatterns {
			if m := re.FindSubmatch(decoded); m != nil {
				return string(m[1]), true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func decodeB64ToBytes(s string) ([]byte, error) {
	// Try standard alphabet (with padding) first, then URL-safe, then raw
	// (no padding). Subscription feeds are sloppy about all three.
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
