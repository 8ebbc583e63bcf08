package schema

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

// ParquetTag represents the components of a parquet tag
type ParquetTag struct {
	Name     string
	Type     string
	Nullable bool
	Required bool
	Skip     bool
}

// ParseParquetTag parses and validates a parquet tag string
// e.g. `parquet:"name=monthly_charges,type=float,nullable"`
func ParseParquetTag(tag string) (*ParquetTag, error) {

	// Initialize the ParquetTag with the type
	pt := &ParquetTag{}

	// NOTE: if tag is "-" then skip the field
	if tag == "-" {
		pt.Skip = true
		return pt, nil
	}

	seen := make(map[string]struct{})
	// Split the tag into components
	parts := strings.Split(tag, ",")
	for _, part := range parts {
		// trim spaces
		part = strings.TrimSpace(part)

		// flags
		switch part {
		case "nullable":
			pt.Nullable = true
			continue
		case "required":
			pt.Required = true
			continue
		}

		// split on '='
		kv := strings.Split(part, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid parquet tag: %s - one of 'name' and 'type' must be set ", tag)
		}

		// trim spaces in key and value
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("invalid parquet tag: %s, key '%s' set more than once", tag, key)
		}
		seen[key] = struct{}{}

		switch key {
		case "name":
			pt.Name = value
		case "type":
			pt.Type = value
		default:
			return nil, fmt.Errorf("invalid parquet tag: %s, key '%s' not recognized", tag, key)
		}
	}

	// validate the ParquetTag
	return pt.validate()
}

var validColumnTypes = map[string]struct{}{
	TypeBoolean: {},
	TypeBigint:  {},
	TypeDouble:  {},
	TypeVarchar: {},
}

func (t *ParquetTag) validate() (*ParquetTag, error) {
	if t.Name == "" && t.Type == "" {
		return nil, fmt.Errorf("invalid parquet tag: one of 'name' and 'type' must be set")
	}
	if t.Name != "" && !IsValidColumnName(t.Name) {
		return nil, fmt.Errorf("invalid parquet tag: 'name' must be a valid column name")
	}

	if t.Type != "" {
		normalizedType, err := NormalizeType(t.Type)
		if err != nil {
			validTypes := maps.Keys(validColumnTypes)
			slices.Sort(validTypes)
			return nil, fmt.Errorf("invalid parquet tag: 'type' must be one of %v", validTypes)
		}
		t.Type = normalizedType
	}
	// If everything is valid, return the ParquetTag instance
	return t, nil
}
