package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
)

const (
	DefaultBaseURL      = "https://api.cloud.llamaindex.ai"
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 5 * time.Minute
)

// RemoteExtractor sends the PDF to a LlamaParse compatible service and
// returns the per-page text or markdown of the parsed document.
type RemoteExtractor struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	Timeout      time.Duration
	Client       *http.Client
	Log          *logging.Logger
}

type jobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error_message,omitempty"`
}

type jobResult struct {
	Pages []struct {
		Page int    `json:"page"`
		Text string `json:"text"`
		MD   string `json:"md"`
	} `json:"pages"`
}

// Extract implements Extractor.
func (e *RemoteExtractor) Extract(ctx context.Context, path string, format models.Format) ([]models.Page, error) {
	if e.APIKey == "" {
		return nil, extractionError(path, fmt.Errorf("no API key configured for the parsing service"))
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id, err := e.upload(ctx, path)
	if err != nil {
		return nil, extractionError(path, err)
	}
	e.logger().Info("parsing job submitted", "path", path, "job", id)

	if err := e.wait(ctx, id); err != nil {
		return nil, extractionError(path, err)
	}

	var res jobResult
	if err := e.getJSON(ctx, "/api/parsing/job/"+id+"/result/json", &res); err != nil {
		return nil, extractionError(path, err)
	}
	if len(res.Pages) == 0 {
		return nil, extractionError(path, fmt.Errorf("job %s returned no pages", id))
	}

	texts := make([]string, len(res.Pages))
	for i, p := range res.Pages {
		if format == models.FormatMarkdown {
			texts[i] = p.MD
		} else {
			texts[i] = p.Text
		}
	}
	return pagesFromText(texts), nil
}

func (e *RemoteExtractor) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url("/api/parsing/upload"), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var job jobStatus
	if err := e.do(req, &job); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("upload: service returned no job id")
	}
	return job.ID, nil
}

// wait polls the job until it succeeds, fails or ctx ends.
func (e *RemoteExtractor) wait(ctx context.Context, id string) error {
	interval := e.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var job jobStatus
		if err := e.getJSON(ctx, "/api/parsing/job/"+id, &job); err != nil {
			return err
		}
		switch strings.ToUpper(job.Status) {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELED", "CANCELLED":
			return fmt.Errorf("job %s %s: %s", id, strings.ToLower(job.Status), job.Error)
		}
		e.logger().Debug("parsing job pending", "job", id, "status", job.Status)

		select {
		case <-ctx.Done():
			return fmt.Errorf("job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (e *RemoteExtractor) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url(path), nil)
	if err != nil {
		return err
	}
	return e.do(req, v)
}

func (e *RemoteExtractor) do(req *http.Request, v any) error {
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	req.Header.Set("Accept", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (e *RemoteExtractor) url(path string) string {
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + path
}

func (e *RemoteExtractor) logger() *logging.Logger {
	if e.Log == nil {
		return logging.Nop()
	}
	return e.Log
}
