package schema

import (
	"fmt"
	"strings"
)

// Column types, named as SQL engines name them
const (
	TypeVarchar = "VARCHAR"
	TypeBigint  = "BIGINT"
	TypeDouble  = "DOUBLE"
	TypeBoolean = "BOOLEAN"
)

// aliases accepted in config in addition to the canonical type names
var typeAliases = map[string]string{
	"string":  TypeVarchar,
	"int":     TypeBigint,
	"float":   TypeDouble,
	"bool":    TypeBoolean,
	"varchar": TypeVarchar,
	"bigint":  TypeBigint,
	"double":  TypeDouble,
	"boolean": TypeBoolean,
}

// NormalizeType resolves a type name or alias (case-insensitive) to its canonical column type
func NormalizeType(t string) (string, error) {
	if res, ok := typeAliases[strings.ToLower(strings.TrimSpace(t))]; ok {
		return res, nil
	}
	return "", fmt.Errorf("unsupported column type '%s': must be one of string, int, float, bool", t)
}

// IsNumericType returns whether values of the type can feed numeric statistics
func IsNumericType(t string) bool {
	return t == TypeBigint || t == TypeDouble
}
