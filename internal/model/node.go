package model

// Protocol identifies which grammar matched a node line. The zero value is
// not a valid protocol.
type Protocol string

const (
	ProtocolSSR      Protocol = "ssr"
	ProtocolVMess    Protocol = "vmess"
	ProtocolTrojan   Protocol = "trojan"
	ProtocolVLESS    Protocol = "vless"
	ProtocolSS       Protocol = "ss"
	ProtocolHTTP     Protocol = "http"
	ProtocolSocks5   Protocol = "socks5"
	ProtocolHostPort Protocol = "host-port"
)

// Source records where a descriptor was first seen. On duplicate raw lines
// the merge keeps the first occurrence, so local always wins over
// subscription.
type Source string

const (
	SourceLocal        Source = "local"
	SourceSubscription Source = "subscription"
)

// Payload is the protocol-specific part of a NodeDescriptor, resolved at
// parse time so downstream code never guesses field meaning from position.
type Payload interface {
	Protocol() Protocol
}

// BlobPayload carries the undecoded base64 blob that follows the scheme
// prefix (ssr://, vmess://, and the legacy ss:// forms). The blob is opaque
// here; nodes.ExtractHost and nodes.DecodeSS decode it on demand.
type BlobPayload struct {
	Scheme Protocol
	Blob   string
}

func (p BlobPayload) Protocol() Protocol { return p.Scheme }

// UserHostPayload carries credential@host:port grammars (trojan, vless).
// User is opaque credential material and is never logged.
type UserHostPayload struct {
	Scheme Protocol
	User   string
	Host   string
	Port   int
}

func (p UserHostPayload) Protocol() Protocol { return p.Scheme }

// HostPortPayload carries plain host:port grammars (http, socks5, bare
// host:port).
type HostPortPayload struct {
	Scheme Protocol
	Host   string
	Port   int
}

func (p HostPortPayload) Protocol() Protocol { return p.Scheme }

// NodeDescriptor is one parsed node line. Raw uniquely identifies the node
// for deduplication; it is re-emitted verbatim in artifacts.
type NodeDescriptor struct {
	Raw      string
	Protocol Protocol
	Source   Source
	Payload  Payload
}
