package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

type WriteError struct {
	AppError model.AppError
	Cause    error
}

func (e *WriteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// Artifacts is the full file set for one run. ClashConfig may be empty
// when no selected node was renderable.
type Artifacts struct {
	Report           Report
	SubscriptionText string
	UsageGuide       string
	CloudflareWorker string
	VercelFunction   string
	ClashConfig      string
}

// Write materializes all artifacts under dir:
//
//	test-results.json            machine-readable report
//	subscription.txt             base64-encoded subscription
//	subscription_decoded.txt     plain-text form
//	USAGE.md                     operator guide
//	clash.yaml                   Clash configuration (when renderable)
//	deploy_scripts/              Cloudflare Worker + Vercel snippets
func Write(dir string, a Artifacts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newWriteError(dir, err)
	}

	reportJSON, err := json.MarshalIndent(a.Report, "", "  ")
	if err != nil {
		return newWriteError(filepath.Join(dir, "test-results.json"), err)
	}

	files := map[string]string{
		"test-results.json":        string(reportJSON),
		"subscription.txt":         EncodeSubscription(a.SubscriptionText),
		"subscription_decoded.txt": a.SubscriptionText,
		"USAGE.md":                 a.UsageGuide,
	}
	if a.ClashConfig != "" {
		files["clash.yaml"] = a.ClashConfig
	}
	for name, content := range files {
		if err := writeFile(filepath.Join(dir, name), content); err != nil {
			return err
		}
	}

	scriptsDir := filepath.Join(dir, "deploy_scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return newWriteError(scriptsDir, err)
	}
	if err := writeFile(filepath.Join(scriptsDir, "cloudflare_worker.js"), a.CloudflareWorker); err != nil {
		return err
	}
	return writeFile(filepath.Join(scriptsDir, "vercel_function.js"), a.VercelFunction)
}

func writeFile(path string, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return newWriteError(path, err)
	}
	return nil
}

func newWriteError(path string, cause error) error {
	return &WriteError{
		AppError: model.AppError{
			Code:    "REPORT_WRITE_ERROR",
			Message: "写入结果文件失败",
			Stage:   "report",
			URL:     path,
		},
		Cause: cause,
	}
}
