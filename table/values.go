package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/churn-project/churn-dataset/schema"
)

// ValueMatchesType returns whether a non-nil value has the Go type used for the column type
func ValueMatchesType(v any, columnType string) bool {
	switch v.(type) {
	case string:
		return columnType == schema.TypeVarchar
	case int64:
		return columnType == schema.TypeBigint
	case float64:
		return columnType == schema.TypeDouble
	case bool:
		return columnType == schema.TypeBoolean
	}
	return false
}

// TypeOfValue returns the column type a non-nil value belongs to, or "" if it is not a supported value
func TypeOfValue(v any) string {
	switch v.(type) {
	case string:
		return schema.TypeVarchar
	case int64:
		return schema.TypeBigint
	case float64:
		return schema.TypeDouble
	case bool:
		return schema.TypeBoolean
	}
	return ""
}

// ParseValue parses raw text into the value representation of the column type
func ParseValue(raw string, columnType string) (any, error) {
	switch columnType {
	case schema.TypeVarchar:
		return raw, nil
	case schema.TypeBigint:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s", raw, columnType)
		}
		return v, nil
	case schema.TypeDouble:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s", raw, columnType)
		}
		return v, nil
	case schema.TypeBoolean:
		v, ok := ParseBool(raw)
		if !ok {
			return nil, fmt.Errorf("cannot parse '%s' as %s", raw, columnType)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported column type '%s'", columnType)
}

// ParseBool accepts true or false, case-insensitive
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FormatValue renders a value as text such that ParseValue with the value's column type reproduces it.
// Integral doubles keep a trailing ".0" so a reader inferring types still sees a DOUBLE.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return FormatFloat(val)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprintf("%v", v)
}

func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ToFloat returns the numeric value of an int64 or float64
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	}
	return 0, false
}

// ConvertValue converts a non-nil value to the representation of the target column type
func ConvertValue(v any, toType string) (any, error) {
	if ValueMatchesType(v, toType) {
		return v, nil
	}
	switch val := v.(type) {
	case string:
		return ParseValue(val, toType)
	case int64:
		switch toType {
		case schema.TypeDouble:
			return float64(val), nil
		case schema.TypeVarchar:
			return FormatValue(val), nil
		case schema.TypeBoolean:
			return intToBool(val, v)
		}
	case float64:
		switch toType {
		case schema.TypeBigint:
			if math.IsNaN(val) || math.IsInf(val, 0) || val != math.Trunc(val) || val >= math.MaxInt64 || val < math.MinInt64 {
				return nil, fmt.Errorf("cannot convert non-integral value %v to %s", val, toType)
			}
			return int64(val), nil
		case schema.TypeVarchar:
			return FormatValue(val), nil
		case schema.TypeBoolean:
			if val != math.Trunc(val) {
				return nil, fmt.Errorf("cannot convert %v to %s", val, toType)
			}
			return intToBool(int64(val), v)
		}
	case bool:
		var i int64
		if val {
			i = 1
		}
		switch toType {
		case schema.TypeBigint:
			return i, nil
		case schema.TypeDouble:
			return float64(i), nil
		case schema.TypeVarchar:
			return FormatValue(val), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, toType)
}

func intToBool(i int64, orig any) (any, error) {
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return nil, fmt.Errorf("cannot convert %v to %s", orig, schema.TypeBoolean)
}
