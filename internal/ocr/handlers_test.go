package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine implements Engine for testing handlers.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	parseFn func(ctx context.Context, path string, opts ParseOptions) (*FileResult, error)
}

func (f *fakeEngine) ParseFile(ctx context.Context, path string, opts ParseOptions) (*FileResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if f.parseFn != nil {
		return f.parseFn(ctx, path, opts)
	}
	return &FileResult{Success: true, DocumentText: "# Parsed", NumPages: 1, ProcessingTime: 0.5}, nil
}

type cleanupRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (c *cleanupRecorder) cleanup(path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSingleFileHandlerSuccess(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	cleaner := &cleanupRecorder{}
	handler := SingleFileHandler(engine, cleaner.cleanup, discardLogger())

	payload, err := EncodePayload(SingleFilePayload{
		FilePath: "/tmp/staged.pdf",
		FileName: "report.pdf",
		FileSize: 42,
		Options:  DefaultParseOptions(),
	})
	require.NoError(t, err)

	result, err := handler(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, true, result["success"])
	assert.Equal(t, "# Parsed", result["document_text"])
	assert.Equal(t, "report.pdf", result["file_name"])
	assert.Equal(t, float64(42), result["file_size"])

	assert.Equal(t, []string{"/tmp/staged.pdf"}, engine.calls)
	assert.Equal(t, []string{"/tmp/staged.pdf"}, cleaner.paths)
}

func TestSingleFileHandlerCleansUpOnFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		parseFn: func(ctx context.Context, path string, opts ParseOptions) (*FileResult, error) {
			return nil, errors.New("inference unavailable")
		},
	}
	cleaner := &cleanupRecorder{}
	handler := SingleFileHandler(engine, cleaner.cleanup, discardLogger())

	payload, err := EncodePayload(SingleFilePayload{FilePath: "/tmp/staged.pdf", FileName: "r.pdf"})
	require.NoError(t, err)

	_, err = handler(context.Background(), payload)
	assert.ErrorContains(t, err, "inference unavailable")
	assert.Equal(t, []string{"/tmp/staged.pdf"}, cleaner.paths)
}

func TestSingleFileHandlerRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	handler := SingleFileHandler(&fakeEngine{}, func(string) {}, discardLogger())

	_, err := handler(context.Background(), map[string]any{"file_path": 12345})
	assert.ErrorContains(t, err, "invalid single file payload")
}

func TestBatchFilesHandlerAggregates(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		parseFn: func(ctx context.Context, path string, opts ParseOptions) (*FileResult, error) {
			if path == "/tmp/bad.pdf" {
				return nil, errors.New("unreadable file")
			}
			return &FileResult{Success: true, NumPages: 2, ProcessingTime: 1.0}, nil
		},
	}
	cleaner := &cleanupRecorder{}
	handler := BatchFilesHandler(engine, cleaner.cleanup, discardLogger())

	payload, err := EncodePayload(BatchFilesPayload{
		FilePaths: []string{"/tmp/a.pdf", "/tmp/bad.pdf", "/tmp/c.pdf"},
		FileNames: []string{"a.pdf", "bad.pdf", "c.pdf"},
		FileSizes: []int64{10, 20, 30},
		Options:   DefaultParseOptions(),
	})
	require.NoError(t, err)

	raw, err := handler(context.Background(), payload)
	require.NoError(t, err)

	var batch BatchResult
	require.NoError(t, decodePayload(raw, &batch))

	assert.Equal(t, 3, batch.TotalFiles)
	assert.Equal(t, 2, batch.SuccessfulFiles)
	assert.Equal(t, 1, batch.FailedFiles)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, "bad.pdf", batch.Results[1].FileName)
	assert.Contains(t, batch.Results[1].ErrorMessage, "unreadable file")
	assert.InDelta(t, 2.0, batch.TotalProcessingTime, 0.001)

	// Every staged file is cleaned up, including the failed one.
	assert.ElementsMatch(t, []string{"/tmp/a.pdf", "/tmp/bad.pdf", "/tmp/c.pdf"}, cleaner.paths)
}

func TestBatchFilesHandlerStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	cleaner := &cleanupRecorder{}
	handler := BatchFilesHandler(engine, cleaner.cleanup, discardLogger())

	payload, err := EncodePayload(BatchFilesPayload{
		FilePaths: []string{"/tmp/a.pdf", "/tmp/b.pdf"},
		FileNames: []string{"a.pdf", "b.pdf"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = handler(ctx, payload)
	assert.ErrorIs(t, err, context.Canceled)

	// Cleanup still ran for all staged files.
	assert.ElementsMatch(t, []string{"/tmp/a.pdf", "/tmp/b.pdf"}, cleaner.paths)
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	in := BatchFilesPayload{
		FilePaths: []string{"/tmp/x.pdf"},
		FileNames: []string{"x.pdf"},
		FileSizes: []int64{7},
		Options:   ParseOptions{SkipCrossPageMerge: true, TargetLongestImageDim: 2048},
	}

	m, err := EncodePayload(in)
	require.NoError(t, err)

	var out BatchFilesPayload
	require.NoError(t, decodePayload(m, &out))
	assert.Equal(t, in, out)
}
