package nodes

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// SSNode is the fully decoded form of an ss:// descriptor, used by the
// Clash renderer. The probe pipeline itself never needs it.
type SSNode struct {
	Name     string
	Server   string
	Port     int
	Cipher   string
	Password string
}

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

func newSSError(snippet string, message string, cause error) error {
	return &ParseError{
		AppError: model.AppError{
			Code:    "SS_DECODE_ERROR",
			Message: message,
			Stage:   "parse_nodes",
			Snippet: truncateSnippet(snippet, 200),
		},
		Cause: cause,
	}
}

// DecodeSS decodes an ss:// line in either the SIP002 form
// (ss://<b64(method:password)>@host:port#name) or the legacy form
// (ss://<b64(method:password@host:port)>#name).
func DecodeSS(raw string) (SSNode, error) {
	if !strings.HasPrefix(raw, "ss://") {
		return SSNode{}, newSSError(raw, "不是 ss:// 节点", nil)
	}

	withoutFrag, frag, hasFrag := strings.Cut(raw, "#")
	name := ""
	if hasFrag {
		decoded, err := url.PathUnescape(frag)
		if err != nil {
			return SSNode{}, newSSError(raw, "节点名称 URL 解码失败", err)
		}
		name = strings.TrimSpace(decoded)
		if strings.ContainsAny(name, "\r\n\x00") {
			return SSNode{}, newSSError(raw, "节点名称包含非法控制字符", nil)
		}
	}

	// Query parameters (plugin options) are irrelevant to rendering a basic
	// ss entry; drop them.
	withoutQuery, _, _ := strings.Cut(withoutFrag, "?")

	rest := strings.TrimPrefix(withoutQuery, "ss://")
	if rest == "" {
		return SSNode{}, newSSError(raw, "ss:// 后缺少内容", nil)
	}

	// Form A: <b64(method:password)>@<host>:<port>
	if strings.Contains(rest, "@") {
		userB64, hostPart, ok := strings.Cut(rest, "@")
		if !ok || userB64 == "" || hostPart == "" {
			return SSNode{}, newSSError(raw, "ss uri 格式不合法", nil)
		}
		hostPort := strings.TrimSuffix(hostPart, "/")

		method, password, err := decodeMethodPassword(userB64)
		if err != nil {
			return SSNode{}, newSSError(raw, "ss userinfo base64 解码失败", err)
		}
		server, port, err := parseHostPort(hostPort)
		if err != nil {
			return SSNode{}, newSSError(raw, "服务器地址或端口不合法", err)
		}
		return SSNode{Name: name, Server: server, Port: port, Cipher: method, Password: password}, nil
	}

	// Form B: ss://<b64(method:password@host:port)>
	b, err := decodeB64ToBytes(rest)
	if err != nil {
		return SSNode{}, newSSError(raw, "ss base64 解码失败", err)
	}
	decoded := string(b)
	if !utf8.ValidString(decoded) {
		return SSNode{}, newSSError(raw, "ss base64 解码结果不是合法 UTF-8", nil)
	}

	at := strings.LastIndex(decoded, "@")
	if at < 0 {
		return SSNode{}, newSSError(raw, "ss base64 解码结果缺少 @ 分隔符", nil)
	}
	credPart := decoded[:at]
	hostPortPart := decoded[at+1:]

	colon := strings.IndexByte(credPart, ':')
	if colon <= 0 {
		return SSNode{}, newSSError(raw, "ss base64 解码结果缺少 cipher:password", nil)
	}
	method := strings.TrimSpace(credPart[:colon])
	password := strings.TrimSpace(credPart[colon+1:])
	if method == "" || password == "" {
		return SSNode{}, newSSError(raw, "cipher 或 password 不能为空", nil)
	}

	server, port, err := parseHostPort(hostPortPart)
	if err != nil {
		return SSNode{}, newSSError(raw, "服务器地址或端口不合法", err)
	}
	return SSNode{Name: name, Server: server, Port: port, Cipher: method, Password: password}, nil
}

func decodeMethodPassword(userB64 string) (string, string, error) {
	b, err := decodeB64ToBytes(userB64)
	if err != nil {
		return "", "", err
	}
	decoded := string(b)
	if !utf8.ValidString(decoded) {
		return "", "", errors.New("decoded method:password is not valid utf-8")
	}
	colon := strings.IndexByte(decoded, ':')
	if colon <= 0 {
		return "", "", errors.New("missing ':'")
	}
	method := strings.TrimSpace(decoded[:colon])
	password := strings.TrimSpace(decoded[colon+1:])
	if method == "" || password == "" {
		return "", "", errors.New("empty method or password")
	}
	if strings.ContainsAny(method, "\r\n\x00") || strings.ContainsAny(password, "\r\n\x00") {
		return "", "", errors.New("control chars in method/password")
	}
	return method, password, nil
}

func parseHostPort(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "", 0, errors.New("empty host")
	}
	portInt, err := strconv.Atoi(strings.TrimSpace(portStr))
	if err != nil {
		return "", 0, err
	}
	if portInt < 1 || portInt > 65535 {
		return "", 0, errors.New("port out of range")
	}
	return host, portInt, nil
}
