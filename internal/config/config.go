package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Env            string
	Port           string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PublicURL      string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	LoginMaxAttempts int
	LoginWindow      time.Duration

	AllowedOrigins []string
	MaxImageBytes  int64
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine outside development

	jwtExpiry, err := getduration("JWT_EXPIRES_IN", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}
	window, err := getduration("LOGIN_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cost, err := getint("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}
	attempts, err := getint("LOGIN_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	maxMB, err := getint("MAX_IMAGE_MB", 5)
	if err != nil {
		return nil, err
	}

	port := getenv("PORT", "8080")
	return &Config{
		Env:              getenv("APP_ENV", "development"),
		Port:             port,
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		MongoURI:         getenv("MONGO_URI", ""),
		MongoDB:          getenv("MONGO_DB", "pinboard"),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:    getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:      getenv("MINIO_BUCKET", "pin-images"),
		MinioUseSSL:      getenv("MINIO_USE_SSL", "false") == "true",
		PublicURL:        strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:"+port), "/"),
		JWTSecret:        getenv("JWT_SECRET_KEY", ""),
		JWTExpiry:        jwtExpiry,
		BcryptCost:       cost,
		LoginMaxAttempts: attempts,
		LoginWindow:      window,
		AllowedOrigins:   splitList(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		MaxImageBytes:    int64(maxMB) << 20,
	}, nil
}

// IsDevelopment reports whether APP_ENV is "development".
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects settings the server cannot safely start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.LoginMaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_MB must be positive"))
	}
	if !c.IsDevelopment() {
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET_KEY must be at least 32 characters outside development"))
		}
		if c.BcryptCost < 10 {
			errs = append(errs, errors.New("BCRYPT_COST must be at least 10 outside development"))
		}
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required outside development"))
		}
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getduration accepts Go durations ("1h30m") and a day suffix ("90d").
func getduration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
