package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// Browser-like UA; some subscription hosts refuse default Go clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default 5 MiB
	MaxRedirects int           // default 5
}

type FetchError struct {
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// FetchText downloads a subscription payload as UTF-8 text.
func FetchText(ctx context.Context, rawURL string) (string, error) {
	return FetchTextWithOptions(ctx, rawURL, Options{})
}

func FetchTextWithOptions(ctx context.Context, rawURL string, opt Options) (string, error) {
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 5
	}
	maxBytes := opt.MaxBytes
	if maxBytes == 0 {
		maxBytes = 5 * 1024 * 1024
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", newFetchError(rawURL, "INVALID_ARGUMENT", "仅允许 http/https URL", errors.Join(errInvalidURLOrScheme, err))
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", newFetchError(rawURL, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		switch {
		case errors.Is(err, errTooManyRedirects):
			return "", newFetchError(rawURL, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", maxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return "", newFetchError(rawURL, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
		case isTimeout(err):
			return "", newFetchError(rawURL, "FETCH_TIMEOUT", "拉取订阅超时", err)
		default:
			return "", newFetchError(rawURL, "FETCH_FAILED", "拉取订阅失败", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newFetchError(rawURL, "FETCH_FAILED", fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode), nil)
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", newFetchError(rawURL, "FETCH_TIMEOUT", "拉取订阅超时", err)
		}
		return "", newFetchError(rawURL, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > maxBytes {
		return "", newFetchError(rawURL, "TOO_LARGE", fmt.Sprintf("订阅内容过大（>%d bytes）", maxBytes), nil)
	}
	if !utf8.Valid(body) {
		return "", newFetchError(rawURL, "FETCH_INVALID_UTF8", "订阅内容不是合法 UTF-8 文本", nil)
	}

	return string(body), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func newFetchError(rawURL, code, message string, cause error) error {
	return &FetchError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "fetch_sub",
			URL:     rawURL,
		},
		Cause: cause,
	}
}
