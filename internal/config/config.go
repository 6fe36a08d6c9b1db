package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	CatalogURL    string
	StreetViewURL string
	StreetViewKey string

	LimitPerDepartment int
	DepartmentCount    int
	MinImageSize       int

	ImageDir string
	CSVPath  string
	JSONPath string

	HTTPTimeout     time.Duration
	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration

	// Optional publication of final records.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("HTTP_TIMEOUT", "0s"))
	if err != nil || httpTimeout < 0 {
		return nil, errors.New("invalid HTTP_TIMEOUT")
	}

	limit, err := parsePositiveInt("LIMIT_PER_DEPARTMENT", 10)
	if err != nil {
		return nil, err
	}

	departments, err := parsePositiveInt("DEPARTMENT_COUNT", 95)
	if err != nil {
		return nil, err
	}
	if departments > 99 {
		return nil, errors.New("DEPARTMENT_COUNT must be at most 99")
	}

	minImageSize, err := parseNonNegativeInt("MIN_IMAGE_SIZE", 20000)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		CatalogURL:    sharedcfg.EnvOrDefault("CATALOG_URL", "https://data.enedis.fr/api/explore/v2.1/catalog/datasets/poste-electrique/records"),
		StreetViewURL: sharedcfg.EnvOrDefault("STREETVIEW_URL", "https://maps.googleapis.com/maps/api/streetview"),
		StreetViewKey: os.Getenv("STREETVIEW_API_KEY"),

		LimitPerDepartment: limit,
		DepartmentCount:    departments,
		MinImageSize:       minImageSize,

		ImageDir: sharedcfg.EnvOrDefault("IMAGE_DIR", "images"),
		CSVPath:  sharedcfg.EnvOrDefault("CSV_PATH", "enedis_data_with_images.csv"),
		JSONPath: sharedcfg.EnvOrDefault("JSON_PATH", "enedis_data.json"),

		HTTPTimeout:     httpTimeout,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "substation-images"),
	}

	if cfg.StreetViewKey == "" {
		return nil, errors.New("STREETVIEW_API_KEY is required")
	}
	if cfg.CatalogURL == "" {
		return nil, errors.New("CATALOG_URL is required")
	}
	if cfg.StreetViewURL == "" {
		return nil, errors.New("STREETVIEW_URL is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether final records should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveInt(key string, def int) (int, error) {
	n, err := parseInt(key, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be at least 1", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	n, err := parseInt(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must be non-negative", key)
	}
	return n, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
