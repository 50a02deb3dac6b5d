package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	SMS      SMSConfig
	Admin    AdminConfig
	Log      LogConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// SMSConfig carries the gateway credentials and dispatch tuning. It is read once
// at startup and handed to the dispatcher.
type SMSConfig struct {
	APIURL         string
	Username       string
	Password       string
	SuccessMarker  string
	Timeout        time.Duration
	Concurrency    int
	RequireConsent bool
	ConfirmBaseURL string
}

type AdminConfig struct {
	// UploadDir receives inmate CSV files before the importer picks them up.
	UploadDir string
}

type LogConfig struct {
	Level string
	File  string
}

func LoadAll() (*Config, error) {
	var errs []error

	str := func(key string) string {
		v, err := requireEnv(key)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	num := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	flag := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: str("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			Address:  str("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       num("REDIS_DB", 0),
			TTL:      time.Duration(num("REDIS_TTL_SECONDS", 86400)) * time.Second,
		},
		Worker: WorkerConfig{
			Interval:  time.Duration(num("WORKER_INTERVAL_SECONDS", 5)) * time.Second,
			BatchSize: num("WORKER_BATCH_SIZE", 10),
		},
		SMS: SMSConfig{
			APIURL:         str("SMS_API"),
			Username:       os.Getenv("SMS_USER"),
			Password:       os.Getenv("SMS_PASSWORD"),
			SuccessMarker:  getEnv("SMS_SUCCESS_MARKER", "402"),
			Timeout:        time.Duration(num("SMS_TIMEOUT_SECONDS", 10)) * time.Second,
			Concurrency:    num("SMS_CONCURRENCY", 4),
			RequireConsent: flag("SMS_REQUIRE_CONSENT", true),
			ConfirmBaseURL: strings.TrimRight(getEnv("CONFIRM_BASE_URL", "http://keralarescue.in"), "/"),
		},
		Admin: AdminConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.Worker.BatchSize <= 0 {
		errs = append(errs, errors.New("WORKER_BATCH_SIZE must be > 0"))
	}
	if cfg.Worker.Interval <= 0 {
		errs = append(errs, errors.New("WORKER_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.SMS.Concurrency <= 0 {
		errs = append(errs, errors.New("SMS_CONCURRENCY must be > 0"))
	}
	if cfg.SMS.Timeout <= 0 {
		errs = append(errs, errors.New("SMS_TIMEOUT_SECONDS must be > 0"))
	}
	if cfg.SMS.SuccessMarker == "" {
		errs = append(errs, errors.New("SMS_SUCCESS_MARKER must not be empty"))
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %q", cfg.Log.Level))
	}
	return joinErrors(errs)
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	return b, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
