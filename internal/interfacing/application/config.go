package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"franchise-interfacing/internal/calendar"
	interfacing "franchise-interfacing/internal/interfacing/domain"
)

const (
	defaultWorkers       = 4
	defaultExportTimeout = 600 * time.Second
	defaultResultTTL     = time.Hour
	defaultCurrency      = "EUR"
	defaultPayerName     = "Sixt"
	defaultPaymentTerm   = 30
)

// Thresholds defines delta thresholds in percent.
type Thresholds struct {
	Warn   float64 `yaml:"warn"`
	Danger float64 `yaml:"danger"`
}

// ClassificationConfig maps posting types to buckets.
type ClassificationConfig struct {
	Buckets     map[string]string `yaml:"buckets"`
	Contractual []string          `yaml:"contractual"`
}

// HolidayConfig overrides the fixed holidays (MM-DD).
type HolidayConfig struct {
	Fixed []string `yaml:"fixed"`
}

// LabelConfig overrides the balance label texts.
type LabelConfig struct {
	Requested string `yaml:"requested"`
	Initiated string `yaml:"initiated"`
}

// Config defines the interfacing engine configuration.
type Config struct {
	Workers        int                   `yaml:"workers"`
	ExportTimeout  time.Duration         `yaml:"export_timeout"`
	ResultTTL      time.Duration         `yaml:"result_ttl"`
	Currency       string                `yaml:"currency"`
	PayerName      string                `yaml:"payer_name"`
	PaymentTerm    int                   `yaml:"payment_term_days"`
	Classification ClassificationConfig  `yaml:"classification"`
	Defaults       Thresholds            `yaml:"defaults"`
	Categories     map[string]Thresholds `yaml:"categories"`
	Holidays       HolidayConfig         `yaml:"holidays"`
	Labels         LabelConfig           `yaml:"labels"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Workers:       defaultWorkers,
		ExportTimeout: defaultExportTimeout,
		ResultTTL:     defaultResultTTL,
		Currency:      defaultCurrency,
		PayerName:     defaultPayerName,
		PaymentTerm:   defaultPaymentTerm,
		Defaults:      Thresholds{Warn: interfacing.DefaultWarnPct, Danger: interfacing.DefaultDangerPct},
	}
}

// LoadConfig loads config from env and an optional yaml file (INTERFACING_CONFIG).
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.Workers = getenvIntDefault("INTERFACING_WORKERS", cfg.Workers)
	cfg.ExportTimeout = getenvDuration("INTERFACING_EXPORT_TIMEOUT", cfg.ExportTimeout)
	cfg.ResultTTL = getenvDuration("INTERFACING_EXPORT_RESULT_TTL", cfg.ResultTTL)
	cfg.Currency = getenvDefault("INTERFACING_CURRENCY", cfg.Currency)
	cfg.PayerName = getenvDefault("INTERFACING_PAYER", cfg.PayerName)
	cfg.PaymentTerm = getenvIntDefault("INTERFACING_PAYMENT_TERM_DAYS", cfg.PaymentTerm)

	if path := os.Getenv("INTERFACING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("interfacing config: workers must be positive")
	}
	if c.ExportTimeout <= 0 {
		return errors.New("interfacing config: export timeout must be positive")
	}
	if c.ResultTTL <= 0 {
		return errors.New("interfacing config: export result ttl must be positive")
	}
	if label := c.Labels.Initiated; label != "" && !validInitiatedLabel(label) {
		return fmt.Errorf("interfacing config: labels.initiated %q must contain exactly one %%s verb", label)
	}
	if c.PaymentTerm < 0 {
		return interfacing.ErrInvalidPaymentTerm
	}
	if _, err := c.ClassificationTable(); err != nil {
		return err
	}
	if _, err := c.Calendar(); err != nil {
		return err
	}
	return nil
}

// ClassificationTable builds the classifier table over the defaults.
func (c Config) ClassificationTable() (interfacing.ClassificationTable, error) {
	table := interfacing.DefaultClassificationTable()
	for postingType, bucket := range c.Classification.Buckets {
		switch b := interfacing.Bucket(strings.ToLower(bucket)); b {
		case interfacing.BucketClearing, interfacing.BucketBilling:
			table = table.WithBucket(interfacing.PostingType(postingType), b)
		default:
			return table, fmt.Errorf("interfacing config: unknown bucket %q for %q", bucket, postingType)
		}
	}
	return table.WithContractual(c.Classification.Contractual...), nil
}

// DeltaThresholds resolves the per-category thresholds.
func (c Config) DeltaThresholds() interfacing.Thresholds {
	th := interfacing.Thresholds{
		Default:    interfacing.Threshold{Warn: c.Defaults.Warn, Danger: c.Defaults.Danger},
		Categories: make(map[string]interfacing.Threshold, len(c.Categories)),
	}
	for category, t := range c.Categories {
		th.Categories[category] = interfacing.Threshold{Warn: t.Warn, Danger: t.Danger}
	}
	return th
}

// Calendar builds the holiday calendar; without overrides the Portuguese one.
func (c Config) Calendar() (*calendar.Calendar, error) {
	if len(c.Holidays.Fixed) == 0 {
		return calendar.Portugal(), nil
	}
	fixed := make([]calendar.MonthDay, 0, len(c.Holidays.Fixed))
	for _, value := range c.Holidays.Fixed {
		md, err := calendar.ParseMonthDay(value)
		if err != nil {
			return nil, err
		}
		fixed = append(fixed, md)
	}
	return calendar.New(fixed), nil
}

// LabelPolicy returns the balance label texts.
func (c Config) LabelPolicy() interfacing.LabelPolicy {
	policy := interfacing.DefaultLabelPolicy()
	if c.Labels.Requested != "" {
		policy.Requested = c.Labels.Requested
	}
	if c.Labels.Initiated != "" {
		policy.Initiated = c.Labels.Initiated
	}
	return policy
}

// validInitiatedLabel accepts one %s for the payer and escaped %% only.
func validInitiatedLabel(label string) bool {
	rest := strings.ReplaceAll(label, "%%", "")
	return strings.Count(rest, "%s") == 1 && strings.Count(rest, "%") == 1
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
