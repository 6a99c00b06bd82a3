package config

import (
	"fmt"
	"os"

	"github.com/aretw0/bookflow/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Defaults returns the default configuration as it appears in a config file.
func Defaults() map[string]any {
	return map[string]any{
		"tenant":     "bookflow",
		"log_level":  "info",
		"log_format": "text",
		"listen":     ":8080",
		"form_settings": map[string]any{
			"bf_enable_location_check":     "1",
			"bf_enable_pet_information":    "1",
			"bf_enable_service_frequency":  "1",
			"bf_enable_datetime_selection": "1",
			"bf_enable_property_access":    "1",
		},
		"area_check": map[string]any{
			"debounce":        "500ms",
			"request_timeout": "5s",
			"postal_pattern":  validation.DefaultPostalPattern,
			"areas": []any{
				map[string]any{
					"name":     "Downtown",
					"zips":     []any{"10001", "10002"},
					"prefixes": []any{"100"},
				},
			},
		},
		"services": []any{
			map[string]any{
				"id":       "standard",
				"name":     "Standard Cleaning",
				"price":    90.0,
				"duration": 120,
				"options": []any{
					map[string]any{
						"id":           "bedrooms",
						"name":         "Bedrooms",
						"type":         "number",
						"required":     true,
						"price_impact": 15.0,
						"impact_type":  "fixed",
					},
				},
			},
			map[string]any{
				"id":                       "windows",
				"name":                     "Window Cleaning",
				"price":                    60.0,
				"duration":                 60,
				"disable_pet_question":     true,
				"disable_frequency_option": true,
			},
		},
		"availability": map[string]any{
			"interval":     "30m",
			"horizon_days": 60,
			"rules": []any{
				map[string]any{"day": "monday", "start": "09:00", "end": "17:00"},
				map[string]any{"day": "tuesday", "start": "09:00", "end": "17:00"},
				map[string]any{"day": "wednesday", "start": "09:00", "end": "17:00"},
				map[string]any{"day": "thursday", "start": "09:00", "end": "17:00"},
				map[string]any{"day": "friday", "start": "09:00", "end": "15:00"},
			},
		},
		"store": map[string]any{
			"driver":         DriverMemory,
			"redis":          map[string]any{"addr": "localhost:6379", "password": "", "db": 0},
			"dir":            ".bookflow/sessions",
			"ttl":            "72h",
			"lock_ttl":       "30s",
			"encryption_key": "",
			"pii_mask":       []any{},
		},
		"nats": map[string]any{
			"url":      "",
			"embedded": false,
			"data_dir": ".bookflow/nats",
		},
		"metrics": map[string]any{
			"enabled": true,
		},
	}
}

// WriteDefault writes the default configuration to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
