package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ImagePolicy decides what a failed cover upload does to book creation.
type ImagePolicy string

const (
	ImagePolicyAbort  ImagePolicy = "abort"
	ImagePolicyIgnore ImagePolicy = "ignore"
)

type Config struct {
	Port            string
	MongoURI        string
	DBName          string
	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Endpoint      string // optional, for S3-compatible hosts
	S3PublicBaseURL string // prefix of the URLs stored on books; defaults to the bucket URL
	MaxUploadMB     int64  // whole multipart request
	MaxFileMB       int64  // single part
	UploadTimeout   time.Duration
	ImagePolicy     ImagePolicy
	ImageMaxEdge    int
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))

	policy := ImagePolicy(strings.ToLower(getEnv("IMAGE_UPLOAD_FAILURE_POLICY", string(ImagePolicyAbort))))
	if policy != ImagePolicyAbort && policy != ImagePolicyIgnore {
		return nil, fmt.Errorf("IMAGE_UPLOAD_FAILURE_POLICY must be %q or %q, got %q", ImagePolicyAbort, ImagePolicyIgnore, policy)
	}
	timeout, err := time.ParseDuration(getEnv("UPLOAD_TIMEOUT", "60s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("UPLOAD_TIMEOUT must be a positive duration: %q", os.Getenv("UPLOAD_TIMEOUT"))
	}

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("MONGODB_DB", "skillspark"),
		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
		S3PublicBaseURL: strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		MaxUploadMB:     getPositiveInt("MAX_UPLOAD_MB", 25),
		MaxFileMB:       getPositiveInt("MAX_FILE_MB", 10),
		UploadTimeout:   timeout,
		ImagePolicy:     policy,
		ImageMaxEdge:    int(getPositiveInt("IMAGE_MAX_EDGE", 500)),
	}
	if cfg.S3PublicBaseURL == "" && cfg.S3Bucket != "" {
		cfg.S3PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	return cfg, nil
}

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

func (c *Config) MaxFileBytes() int64 { return c.MaxFileMB << 20 }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getPositiveInt falls back on missing, malformed or non-positive values.
func getPositiveInt(key string, fallback int64) int64 {
	if n, err := strconv.ParseInt(getEnv(key, ""), 10, 64); err == nil && n > 0 {
		return n
	}
	return fallback
}
