package sink

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the sink's current configuration.
// Keys are the TOML names of Config fields. The configuration is cloned before modification.
//
// Example:
//
//	s := sink.NewSink()
//	err := s.ApplyOverride(
//	    "directory=/var/log/app",
//	    "merge_policy=group",
//	    "queue_capacity=10000",
//	)
func (s *Sink) ApplyOverride(overrides ...string) error {
	cfg := s.getConfig().Clone()

	var errs []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return combineConfigErrors(errs)
	}

	return s.ApplyConfig(cfg)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString("sink: multiple configuration errors:")
	for i, err := range errs {
		errMsg := strings.TrimPrefix(err.Error(), "sink: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField parses value by the kind of the field tagged key and stores it in cfg
func applyConfigField(cfg *Config, key, value string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") != key {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Int64:
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
			}
			field.SetInt(intVal)
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmtErrorf("invalid float value for %s '%s': %w", key, value, err)
			}
			field.SetFloat(floatVal)
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(value)
			if err != nil {
				return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
			}
			field.SetBool(boolVal)
		default:
			return fmtErrorf("unsupported field type for %s: %v", key, field.Kind())
		}
		return nil
	}

	return fmtErrorf("unknown configuration key '%s'", key)
}
