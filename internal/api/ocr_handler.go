package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lexhide/ocrflow/internal/api/shared"
	"github.com/lexhide/ocrflow/internal/domain"
	"github.com/lexhide/ocrflow/internal/ocr"
	"github.com/lexhide/ocrflow/internal/upload"
)

// batchPriority orders batch submissions ahead of default-priority work,
// matching the service's historical behavior.
const batchPriority = 1

// SubmitService is the engine surface the submission endpoints need.
type SubmitService interface {
	Submit(taskType string, payload map[string]any, priority int) (uuid.UUID, error)
}

// parseOptionsForm carries the option form fields of a submission request.
type parseOptionsForm struct {
	SkipCrossPageMerge    bool
	MaxPageRetries        int `validate:"gte=0,lte=10"`
	TargetLongestImageDim int `validate:"gte=256,lte=4096"`
	ImageRotation         int `validate:"oneof=0 90 180 270"`
}

// OCRHandler handles document submission HTTP requests.
type OCRHandler struct {
	submitter SubmitService
	uploads   *upload.Handler
	validator *validator.Validate
	logger    *slog.Logger
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(submitter SubmitService, uploads *upload.Handler, logger *slog.Logger) *OCRHandler {
	return &OCRHandler{
		submitter: submitter,
		uploads:   uploads,
		validator: validator.New(),
		logger:    logger,
	}
}

// ParseAsync handles POST /api/v1/ocr/parse-async requests: stage the
// uploaded file and submit an ocr_single_file task. Responds 202 with the
// task id.
func (h *OCRHandler) ParseAsync(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid parse options: "+err.Error())
		return
	}

	_, fh, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing file upload")
		return
	}

	saved, err := h.uploads.Save(fh)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	payload, err := ocr.EncodePayload(ocr.SingleFilePayload{
		FilePath: saved.Path,
		FileName: saved.Name,
		FileSize: saved.Size,
		Options:  opts,
	})
	if err != nil {
		h.uploads.Cleanup(saved.Path)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to build task payload", err)
		return
	}

	taskID, err := h.submitter.Submit(ocr.TaskTypeSingleFile, payload, 0)
	if err != nil {
		h.uploads.Cleanup(saved.Path)
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("single file task submitted", "task_id", taskID, "file_name", saved.Name)
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		TaskID: taskID.String(),
		Status: string(domain.TaskStatusPending),
	})
}

// BatchAsync handles POST /api/v1/ocr/batch-async requests: stage every
// uploaded file and submit one ocr_batch_files task at batch priority.
func (h *OCRHandler) BatchAsync(w http.ResponseWriter, r *http.Request) {
	opts, err := h.parseOptions(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid parse options: "+err.Error())
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No files uploaded")
		return
	}

	batch := ocr.BatchFilesPayload{Options: opts}
	cleanupAll := func() {
		for _, path := range batch.FilePaths {
			h.uploads.Cleanup(path)
		}
	}

	for _, fh := range files {
		saved, err := h.uploads.Save(fh)
		if err != nil {
			cleanupAll()
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}
		batch.FilePaths = append(batch.FilePaths, saved.Path)
		batch.FileNames = append(batch.FileNames, saved.Name)
		batch.FileSizes = append(batch.FileSizes, saved.Size)
	}

	payload, err := ocr.EncodePayload(batch)
	if err != nil {
		cleanupAll()
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to build task payload", err)
		return
	}

	taskID, err := h.submitter.Submit(ocr.TaskTypeBatchFiles, payload, batchPriority)
	if err != nil {
		cleanupAll()
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("batch task submitted", "task_id", taskID, "file_count", len(files))
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitResponse{
		TaskID: taskID.String(),
		Status: string(domain.TaskStatusPending),
	})
}

// parseOptions reads the option form fields, applying defaults for absent
// values and validating the combination.
func (h *OCRHandler) parseOptions(r *http.Request) (ocr.ParseOptions, error) {
	defaults := ocr.DefaultParseOptions()
	form := parseOptionsForm{
		MaxPageRetries:        defaults.MaxPageRetries,
		TargetLongestImageDim: defaults.TargetLongestImageDim,
		ImageRotation:         defaults.ImageRotation,
	}

	var err error
	if v := r.FormValue("skip_cross_page_merge"); v != "" {
		if form.SkipCrossPageMerge, err = strconv.ParseBool(v); err != nil {
			return ocr.ParseOptions{}, err
		}
	}
	if v := r.FormValue("max_page_retries"); v != "" {
		if form.MaxPageRetries, err = strconv.Atoi(v); err != nil {
			return ocr.ParseOptions{}, err
		}
	}
	if v := r.FormValue("target_longest_image_dim"); v != "" {
		if form.TargetLongestImageDim, err = strconv.Atoi(v); err != nil {
			return ocr.ParseOptions{}, err
		}
	}
	if v := r.FormValue("image_rotation"); v != "" {
		if form.ImageRotation, err = strconv.Atoi(v); err != nil {
			return ocr.ParseOptions{}, err
		}
	}

	if err := h.validator.Struct(form); err != nil {
		return ocr.ParseOptions{}, err
	}

	return ocr.ParseOptions{
		SkipCrossPageMerge:    form.SkipCrossPageMerge,
		MaxPageRetries:        form.MaxPageRetries,
		TargetLongestImageDim: form.TargetLongestImageDim,
		ImageRotation:         form.ImageRotation,
	}, nil
}
