package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Queue  QueueConfig  `mapstructure:"queue"  validate:"required"`
	Upload UploadConfig `mapstructure:"upload" validate:"required"`
	OCR    OCRConfig    `mapstructure:"ocr"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// QueueConfig contains the task engine settings.
type QueueConfig struct {
	// MaxConcurrentTasks caps simultaneously executing tasks.
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks" validate:"required,gt=0"`

	// TaskTimeoutSeconds is the per-task execution deadline.
	TaskTimeoutSeconds int `mapstructure:"task_timeout" validate:"required,gt=0"`

	// ResultCacheTTLSeconds is how long finished task results are kept.
	ResultCacheTTLSeconds int `mapstructure:"result_cache_ttl" validate:"required,gt=0"`

	// CleanupIntervalSeconds is how often expired results are swept.
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval" validate:"required,gt=0"`
}

// TaskTimeout returns the task timeout as a duration.
func (c QueueConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// ResultCacheTTL returns the result cache TTL as a duration.
func (c QueueConfig) ResultCacheTTL() time.Duration {
	return time.Duration(c.ResultCacheTTLSeconds) * time.Second
}

// CleanupInterval returns the janitor sweep interval as a duration.
func (c QueueConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// UploadConfig contains file upload handling settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" validate:"required,gt=0"`

	// AllowedExtensions lists accepted file extensions, dot included.
	AllowedExtensions []string `mapstructure:"allowed_extensions" validate:"required,min=1"`

	// TempDir is where uploads are staged for processing.
	TempDir string `mapstructure:"temp_dir" validate:"required"`
}

// OCRConfig contains settings for the OCR inference backend.
type OCRConfig struct {
	// InferenceURL is the base URL of the model inference server.
	InferenceURL string `mapstructure:"inference_url" validate:"required,url"`

	// RequestTimeoutSeconds bounds a single inference HTTP request. Should
	// not exceed the queue task timeout, or the task deadline fires first.
	RequestTimeoutSeconds int `mapstructure:"request_timeout" validate:"required,gt=0"`
}

// RequestTimeout returns the inference request timeout as a duration.
func (c OCRConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
