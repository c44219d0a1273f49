package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lexhide/ocrflow/internal/config"
)

// RemoteEngine talks to a model inference server over HTTP. The server
// accepts a multipart POST to /parse with the file and parse options and
// responds with a FileResult JSON body.
type RemoteEngine struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewRemoteEngine creates an engine for the configured inference backend.
func NewRemoteEngine(cfg config.OCRConfig, logger *slog.Logger) *RemoteEngine {
	return &RemoteEngine{
		baseURL: cfg.InferenceURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout()},
		logger:  logger,
	}
}

// ParseFile uploads the file to the inference server and decodes the result.
func (e *RemoteEngine) ParseFile(ctx context.Context, path string, opts ParseOptions) (*FileResult, error) {
	start := time.Now()

	body, contentType, err := e.buildRequestBody(path, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/parse", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			e.logger.Warn("failed to close inference response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference server returned %d: %s", resp.StatusCode, msg)
	}

	var result FileResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}

	if result.ProcessingTime == 0 {
		result.ProcessingTime = time.Since(start).Seconds()
	}
	if result.FileName == "" {
		result.FileName = filepath.Base(path)
	}

	return &result, nil
}

func (e *RemoteEngine) buildRequestBody(path string, opts ParseOptions) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file for inference: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("failed to close staged file", "path", path, "error", cerr)
		}
	}()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to copy file into request: %w", err)
	}

	fields := map[string]string{
		"skip_cross_page_merge":    strconv.FormatBool(opts.SkipCrossPageMerge),
		"max_page_retries":         strconv.Itoa(opts.MaxPageRetries),
		"target_longest_image_dim": strconv.Itoa(opts.TargetLongestImageDim),
		"image_rotation":           strconv.Itoa(opts.ImageRotation),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
