package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lexhide/ocrflow/internal/queue"
)

// CleanupFunc removes a staged file once its task is done with it.
type CleanupFunc func(path string)

// SingleFilePayload is the ocr_single_file task payload.
type SingleFilePayload struct {
	FilePath string       `json:"file_path"`
	FileName string       `json:"file_name"`
	FileSize int64        `json:"file_size"`
	Options  ParseOptions `json:"options"`
}

// BatchFilesPayload is the ocr_batch_files task payload.
type BatchFilesPayload struct {
	FilePaths []string     `json:"file_paths"`
	FileNames []string     `json:"file_names"`
	FileSizes []int64      `json:"file_sizes"`
	Options   ParseOptions `json:"options"`
}

// BatchResult aggregates per-file outcomes for a batch task.
type BatchResult struct {
	TotalFiles          int          `json:"total_files"`
	SuccessfulFiles     int          `json:"successful_files"`
	FailedFiles         int          `json:"failed_files"`
	Results             []FileResult `json:"results"`
	TotalProcessingTime float64      `json:"total_processing_time"`
}

// SingleFileHandler returns the queue handler for ocr_single_file tasks.
// The staged file is removed whether or not processing succeeds.
func SingleFileHandler(engine Engine, cleanup CleanupFunc, logger *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		var p SingleFilePayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid single file payload: %w", err)
		}
		defer cleanup(p.FilePath)

		result, err := engine.ParseFile(ctx, p.FilePath, p.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", p.FileName, err)
		}

		result.FileName = p.FileName
		result.FileSize = p.FileSize

		return encodeResult(result)
	}
}

// BatchFilesHandler returns the queue handler for ocr_batch_files tasks.
// Files are processed sequentially; one failed file marks its entry failed
// without aborting the rest, but a cancelled context stops the batch.
func BatchFilesHandler(engine Engine, cleanup CleanupFunc, logger *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		var p BatchFilesPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid batch payload: %w", err)
		}
		defer func() {
			for _, path := range p.FilePaths {
				cleanup(path)
			}
		}()

		batch := BatchResult{TotalFiles: len(p.FilePaths)}
		for i, path := range p.FilePaths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			name := path
			if i < len(p.FileNames) {
				name = p.FileNames[i]
			}
			var size int64
			if i < len(p.FileSizes) {
				size = p.FileSizes[i]
			}

			result, err := engine.ParseFile(ctx, path, p.Options)
			if err != nil {
				logger.Warn("batch file failed", "file_name", name, "error", err)
				result = &FileResult{Success: false, ErrorMessage: err.Error()}
			}
			result.FileName = name
			result.FileSize = size

			if result.Success {
				batch.SuccessfulFiles++
			} else {
				batch.FailedFiles++
			}
			batch.TotalProcessingTime += result.ProcessingTime
			batch.Results = append(batch.Results, *result)
		}

		return encodeResult(batch)
	}
}

// decodePayload converts the engine's opaque payload map into a typed
// struct via a JSON round trip.
func decodePayload(payload map[string]any, v any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// encodeResult converts a typed result into the opaque map stored on the
// task record.
func encodeResult(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return m, nil
}

// EncodePayload builds the opaque payload map for submission.
func EncodePayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return m, nil
}
