package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// ocrflow.yaml file in the working directory. Environment variables use the
// OCRFLOW_ prefix with underscores for nesting (e.g. OCRFLOW_SERVER_PORT,
// OCRFLOW_QUEUE_MAX_CONCURRENT_TASKS) and take precedence over file values.
// Returns a validated Config or an error describing what failed.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("ocrflow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OCRFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults mirrors the service's documented defaults: four concurrent
// tasks, a five minute task timeout, an hour of result caching and a five
// minute cleanup sweep.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("queue.max_concurrent_tasks", 4)
	v.SetDefault("queue.task_timeout", 300)
	v.SetDefault("queue.result_cache_ttl", 3600)
	v.SetDefault("queue.cleanup_interval", 300)

	v.SetDefault("upload.max_file_size", 100*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{".pdf", ".png", ".jpg", ".jpeg"})
	v.SetDefault("upload.temp_dir", "/tmp/ocrflow")

	v.SetDefault("ocr.inference_url", "http://localhost:8080")
	v.SetDefault("ocr.request_timeout", 240)
}
