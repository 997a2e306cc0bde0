package nodes

import (
	"testing"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

func TestExtractHost_TypedPayloads(t *testing.T) {
	d, ok := ParseLine("trojan://pw@proxy.example.com:443")
	if !ok {
		t.Fatalf("ParseLine ok=false, want=true")
	}
	host, ok := ExtractHost(d)
	if !ok || host != "proxy.example.com" {
		t.Fatalf("host=%q ok=%v, want proxy.example.com true", host, ok)
	}

	d, ok = ParseLine("example.org:8080")
	if !ok {
		t.Fatalf("ParseLine ok=false, want=true")
	}
	host, ok = ExtractHost(d)
	if !ok || host != "example.org" {
		t.Fatalf("host=%q ok=%v, want example.org true", host, ok)
	}
}

func TestExtractHost_VMessBlob(t *testing.T) {
	// base64 of {"v":"2","ps":"node","add":"example.com","port":"443","id":"x"}
	d, ok := ParseLine("vmess://eyJ2IjoiMiIsInBzIjoibm9kZSIsImFkZCI6ImV4YW1wbGUuY29tIiwicG9ydCI6IjQ0MyIsImlkIjoieCJ9")
	if !ok {
		t.Fatalf("ParseLine ok=false, want=true")
	}
	host, ok := ExtractHost(d)
	if !ok || host != "example.com" {
		t.Fatalf("host=%q ok=%v, want example.com true", host, ok)
	}
}

func TestExtractHost_SSBlob(t *testing.T) {
	// base64 of aes-256-gcm:pass123@1.2.3.4:8388; the @host: pattern applies.
	d, ok := ParseLine("ss://YWVzLTI1Ni1nY206cGFzczEyM0AxLjIuMy40OjgzODg=")
	if !ok {
		t.Fatalf("ParseLine ok=false, want=true")
	}
	host, ok := ExtractHost(d)
	if !ok || host != "1.2.3.4" {
		t.Fatalf("host=%q ok=%v, want 1.2.3.4 true", host, ok)
	}
}

func TestExtractHost_NothingHostShaped(t *testing.T) {
	d := model.NodeDescriptor{
		Raw:      "ssr://////",
		Protocol: model.ProtocolSSR,
		Payload:  model.BlobPayload{Scheme: model.ProtocolSSR, Blob: "!!!!"},
	}
	if host, ok := ExtractHost(d); ok {
		t.Fatalf("host=%q ok=true, want ok=false for undecodable blob", host)
	}

	d.Payload = nil
	if _, ok := ExtractHost(d); ok {
		t.Fatalf("ok=true, want=false for nil payload")
	}
}
