package config

import (
	"fmt"
	"strings"

	"tailor-billing-api/internal/models"
)

// TaxDefault is a tax definition created at startup when no definition of
// that name exists yet
type TaxDefault struct {
	Name  string
	Type  models.TaxType
	Value models.Money
}

// ParseTaxDefaults parses a comma-separated list of name:type:value entries,
// for example "GST:percentage:18,Packing:flat:20". An empty string yields none.
func ParseTaxDefaults(raw string) ([]TaxDefault, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var defaults []TaxDefault
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("entry %q must be name:type:value", entry)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("entry %q has an empty name", entry)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("tax %q listed twice", name)
		}
		seen[key] = true

		taxType, err := models.ParseTaxType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		value, err := models.ParseMoney(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry, err)
		}
		if value.IsNegative() {
			return nil, fmt.Errorf("entry %q: value cannot be negative", entry)
		}

		defaults = append(defaults, TaxDefault{Name: name, Type: taxType, Value: value})
	}
	return defaults, nil
}
