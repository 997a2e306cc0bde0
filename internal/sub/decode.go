// Package sub turns a raw subscription payload into node descriptors.
package sub

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/nodeselector-go/internal/model"
	"github.com/John-Robertt/nodeselector-go/internal/nodes"
)

// DecodePayload normalizes a fetched subscription body. Feeds are commonly
// base64-encoded bundles, so decoding is attempted first; anything that does
// not decode to UTF-8 text is treated as a plain-text list. Both outcomes
// are valid, so this never fails.
func DecodePayload(content string) string {
	compact := removeSpaceTabCRLF(content)
	if compact == "" {
		return content
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(compact)
		if err != nil {
			continue
		}
		if utf8.Valid(b) {
			return string(b)
		}
	}
	return content
}

// Parse decodes a subscription payload and parses every node line in it,
// tagging descriptors as subscription-sourced.
func Parse(content string) ([]model.NodeDescriptor, []nodes.SkippedLine) {
	return nodes.ParseList(DecodePayload(content), model.SourceSubscription)
}

func removeSpaceTabCRLF(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
