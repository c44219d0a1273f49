// Package ocr defines the contract with the OCR inference backend and the
// task handlers that adapt it to the queue engine.
package ocr

import "context"

// Task types registered with the queue engine.
const (
	TaskTypeSingleFile = "ocr_single_file"
	TaskTypeBatchFiles = "ocr_batch_files"
)

// ParseOptions controls how a document is converted.
type ParseOptions struct {
	SkipCrossPageMerge    bool `json:"skip_cross_page_merge"`
	MaxPageRetries        int  `json:"max_page_retries"`
	TargetLongestImageDim int  `json:"target_longest_image_dim"`
	ImageRotation         int  `json:"image_rotation"`
}

// DefaultParseOptions returns the options used when a request leaves them
// unset.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		TargetLongestImageDim: 1024,
	}
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	Success        bool              `json:"success"`
	FileName       string            `json:"file_name"`
	FileSize       int64             `json:"file_size"`
	NumPages       int               `json:"num_pages"`
	DocumentText   string            `json:"document_text"`
	PageTexts      map[string]string `json:"page_texts"`
	FallbackPages  []int             `json:"fallback_pages"`
	ProcessingTime float64           `json:"processing_time"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// Engine converts documents to markdown. The actual model inference is an
// external collaborator; implementations must honor ctx cancellation.
type Engine interface {
	ParseFile(ctx context.Context, path string, opts ParseOptions) (*FileResult, error)
}
