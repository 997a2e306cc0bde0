package sub

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

func TestDecodePayload_Base64Bundle(t *testing.T) {
	plain := "ss://YWVzLTI1Ni1nY206cGFzczEyM0AxLjIuMy40OjgzODg=\nexample.org:8080"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))

	if got := DecodePayload(encoded); got != plain {
		t.Fatalf("decoded=%q, want=%q", got, plain)
	}
}

func TestDecodePayload_ToleratesWhitespace(t *testing.T) {
	plain := "example.org:8080"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))
	// Feeds wrap base64 at arbitrary widths and mix CRLF line endings.
	sloppy := encoded[:4] + "\r\n  " + encoded[4:] + "\n"

	if got := DecodePayload(sloppy); got != plain {
		t.Fatalf("decoded=%q, want=%q", got, plain)
	}
}

func TestDecodePayload_PlainTextPassthrough(t *testing.T) {
	plain := "ss://YWJj\nexample.org:8080\n# comment"
	if got := DecodePayload(plain); got != plain {
		t.Fatalf("got=%q, want input unchanged", got)
	}
}

func TestDecodePayload_BinaryStaysRaw(t *testing.T) {
	// Valid base64 whose decoded bytes are not UTF-8 text.
	garbage := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00, 0x81})
	if got := DecodePayload(garbage); got != garbage {
		t.Fatalf("got=%q, want input unchanged", got)
	}
}

func TestDecodePayload_Empty(t *testing.T) {
	if got := DecodePayload("  \r\n"); got != "  \r\n" {
		t.Fatalf("got=%q, want input unchanged", got)
	}
}

func TestParse_TagsSubscriptionSource(t *testing.T) {
	plain := "example.org:8080\ngarbage line"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))

	got, skipped := Parse(encoded)
	if len(got) != 1 {
		t.Fatalf("len(got)=%d, want=1", len(got))
	}
	if got[0].Source != model.SourceSubscription {
		t.Fatalf("source=%q, want=%q", got[0].Source, model.SourceSubscription)
	}
	if len(skipped) != 1 || !strings.Contains(skipped[0].Snippet, "garbage") {
		t.Fatalf("skipped=%+v, want one garbage line", skipped)
	}
}
