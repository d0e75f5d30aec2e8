package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
	"github.com/lixenwraith/sink/sanitizer"
	"github.com/pelletier/go-toml/v2"
)

// configPrefix is the TOML table holding sink settings
const configPrefix = "sink."

// Config holds all sink configuration values
type Config struct {
	// Destination settings
	Directory       string `toml:"directory"` // Default directory, empty selects <cwd>/Logs
	Extension       string `toml:"extension"`
	DateFormat      string `toml:"date_format"`      // Layout of the day stamp in file names
	TimestampFormat string `toml:"timestamp_format"` // Layout of the per-line timestamp
	Sanitization    string `toml:"sanitization"`     // "raw", "txt", or "single"

	// Size limits
	MaxFileSizeKB int64 `toml:"max_file_size_kb"` // Rotation cap per file
	MergeCutoffKB int64 `toml:"merge_cutoff_kb"`  // Cap on one merged flush

	// Drain behavior
	MergePolicy   string `toml:"merge_policy"`   // "cycle" or "group"
	RotationOrder string `toml:"rotation_order"` // "name" or "numeric"
	SyncOnFlush   bool   `toml:"sync_on_flush"`  // fsync after every append

	// Queue bounds
	QueueCapacity  int64  `toml:"queue_capacity"`  // 0 = unbounded
	OverflowPolicy string `toml:"overflow_policy"` // "block", "drop", or "reject"

	// Housekeeping
	RetentionPeriodHrs    float64 `toml:"retention_period_hrs"`    // Hours to keep files (0=disabled)
	HousekeepingCheckMins float64 `toml:"housekeeping_check_mins"` // How often to run retention and archival
	CompressArchived      bool    `toml:"compress_archived"`       // zstd-compress files of past days

	// Heartbeat configuration
	HeartbeatLevel     int64  `toml:"heartbeat_level"`      // 0=disabled, 1=proc, 2=proc+sys
	HeartbeatIntervalS int64  `toml:"heartbeat_interval_s"` // Interval seconds for heartbeat
	HeartbeatPrefix    string `toml:"heartbeat_prefix"`     // Destination prefix for heartbeat records

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Directory:       "",
	Extension:       DefaultExtension,
	DateFormat:      DefaultDateFormat,
	TimestampFormat: DefaultTimeFormat,
	Sanitization:    "raw",

	MaxFileSizeKB: DefaultMaxFileSizeKB,
	MergeCutoffKB: DefaultMergeCutoffKB,

	MergePolicy:   MergePolicyCycle,
	RotationOrder: RotationOrderName,
	SyncOnFlush:   false,

	QueueCapacity:  0,
	OverflowPolicy: OverflowBlock,

	RetentionPeriodHrs:    0.0,
	HousekeepingCheckMins: 60.0,
	CompressArchived:      false,

	HeartbeatLevel:     HeartbeatOff,
	HeartbeatIntervalS: 60,
	HeartbeatPrefix:    "heartbeat_",

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from the [sink] table of a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// A missing file leaves defaults in place
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml tag
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as a [sink] TOML table
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmtErrorf("failed to create config directory: %w", err)
	}

	doc := struct {
		Sink *Config `toml:"sink"`
	}{Sink: c}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmtErrorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmtErrorf("failed to write config file '%s': %w", path, err)
	}
	return nil
}

// extractConfig copies values found by the loader into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		tomlTag := t.Field(i).Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Float64:
		// TOML integers arrive as int64
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		case int:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}
	if strings.TrimSpace(c.Extension) == "" {
		return fmtErrorf("extension cannot be empty")
	}

	if strings.TrimSpace(c.DateFormat) == "" {
		return fmtErrorf("date_format cannot be empty")
	}
	if strings.ContainsAny(c.DateFormat, `/\()`) {
		return fmtErrorf("date_format cannot contain path separators or parentheses: %s", c.DateFormat)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	switch sanitizer.PolicyPreset(c.Sanitization) {
	case sanitizer.PolicyRaw, sanitizer.PolicyTxt, sanitizer.PolicySingle:
	default:
		return fmtErrorf("invalid sanitization: '%s' (use raw, txt, or single)", c.Sanitization)
	}

	if c.MaxFileSizeKB <= 0 {
		return fmtErrorf("max_file_size_kb must be positive: %d", c.MaxFileSizeKB)
	}

	if c.MergeCutoffKB <= 0 {
		return fmtErrorf("merge_cutoff_kb must be positive: %d", c.MergeCutoffKB)
	}

	if c.MergePolicy != MergePolicyCycle && c.MergePolicy != MergePolicyGroup {
		return fmtErrorf("invalid merge_policy: '%s' (use cycle or group)", c.MergePolicy)
	}

	if c.RotationOrder != RotationOrderName && c.RotationOrder != RotationOrderNumeric {
		return fmtErrorf("invalid rotation_order: '%s' (use name or numeric)", c.RotationOrder)
	}

	if c.QueueCapacity < 0 {
		return fmtErrorf("queue_capacity cannot be negative: %d", c.QueueCapacity)
	}

	switch c.OverflowPolicy {
	case OverflowBlock, OverflowDrop, OverflowReject:
	default:
		return fmtErrorf("invalid overflow_policy: '%s' (use block, drop, or reject)", c.OverflowPolicy)
	}

	if c.RetentionPeriodHrs < 0 || c.HousekeepingCheckMins < 0 {
		return fmtErrorf("housekeeping settings cannot be negative")
	}

	if (c.RetentionPeriodHrs > 0 || c.CompressArchived) && c.HousekeepingCheckMins <= 0 {
		return fmtErrorf("housekeeping_check_mins must be positive when retention or archival is enabled")
	}

	if c.HeartbeatLevel < HeartbeatOff || c.HeartbeatLevel > HeartbeatSys {
		return fmtErrorf("heartbeat_level must be between 0 and 2: %d", c.HeartbeatLevel)
	}

	if c.HeartbeatLevel > 0 {
		if c.HeartbeatIntervalS <= 0 {
			return fmtErrorf("heartbeat_interval_s must be positive when heartbeat is enabled: %d",
				c.HeartbeatIntervalS)
		}
		if strings.TrimSpace(c.HeartbeatPrefix) == "" {
			return fmtErrorf("heartbeat_prefix cannot be empty when heartbeat is enabled")
		}
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// maxFileSize returns the rotation cap in bytes
func (c *Config) maxFileSize() int64 {
	return c.MaxFileSizeKB * sizeMultiplier
}

// mergeCutoff returns the merge cap in bytes
func (c *Config) mergeCutoff() int {
	return int(c.MergeCutoffKB * sizeMultiplier)
}
