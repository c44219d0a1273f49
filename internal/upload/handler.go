// Package upload stages multipart file uploads into a temp directory and
// validates them against the configured size and extension limits.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/config"
)

// Validation errors surfaced to the API layer.
var (
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedExtension = errors.New("file extension not allowed")
	ErrEmptyFilename        = errors.New("filename cannot be empty")
)

// SavedFile describes an upload staged on disk for a task handler.
type SavedFile struct {
	// Path is the uuid-named location under the temp directory.
	Path string
	// Name is the client-supplied file name, kept for reporting.
	Name string
	// Size in bytes.
	Size int64
}

// Handler saves and cleans up uploaded files.
type Handler struct {
	maxFileSize int64
	allowedExts map[string]struct{}
	tempDir     string
	logger      *slog.Logger
}

// NewHandler creates an upload handler, ensuring the temp directory exists.
func NewHandler(cfg config.UploadConfig, logger *slog.Logger) (*Handler, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir %s: %w", cfg.TempDir, err)
	}

	exts := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &Handler{
		maxFileSize: cfg.MaxFileSize,
		allowedExts: exts,
		tempDir:     cfg.TempDir,
		logger:      logger,
	}, nil
}

// Save validates the upload and copies it to a uuid-named file in the temp
// directory. The caller (normally a task handler) owns cleanup.
func (h *Handler) Save(fh *multipart.FileHeader) (SavedFile, error) {
	if fh.Filename == "" {
		return SavedFile{}, ErrEmptyFilename
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := h.allowedExts[ext]; !ok {
		return SavedFile{}, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}

	if fh.Size > h.maxFileSize {
		return SavedFile{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, fh.Size, h.maxFileSize)
	}

	src, err := fh.Open()
	if err != nil {
		return SavedFile{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			h.logger.Warn("failed to close upload stream", "error", cerr)
		}
	}()

	path := filepath.Join(h.tempDir, uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return SavedFile{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	// LimitReader guards against a lying Content-Length in the part header.
	written, err := io.Copy(dst, io.LimitReader(src, h.maxFileSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		h.Cleanup(path)
		return SavedFile{}, fmt.Errorf("failed to write temp file: %w", err)
	}
	if written > h.maxFileSize {
		h.Cleanup(path)
		return SavedFile{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, written, h.maxFileSize)
	}

	h.logger.Debug("upload saved", "file_name", fh.Filename, "path", path, "size", written)

	return SavedFile{Path: path, Name: fh.Filename, Size: written}, nil
}

// Cleanup removes a staged file, logging rather than failing if it is
// already gone.
func (h *Handler) Cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove temp file", "path", path, "error", err)
	}
}
