package schema

import "fmt"

type ColumnSchema struct {
	// SourceName is the field name in the raw source data, if it differs from ColumnName
	SourceName string `json:"source_name,omitempty"`
	ColumnName string `json:"name"`
	// one of the Type constants
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	// Required columns must be present in every source file
	Required bool `json:"required,omitempty"`
}

// SourceField returns the name of the field this column is read from
func (c *ColumnSchema) SourceField() string {
	if c.SourceName != "" {
		return c.SourceName
	}
	return c.ColumnName
}

func (c *ColumnSchema) Clone() *ColumnSchema {
	res := *c
	return &res
}

func (c *ColumnSchema) Validate() error {
	if !IsValidColumnName(c.ColumnName) {
		return fmt.Errorf("invalid column name '%s'", c.ColumnName)
	}
	if c.Type != "" && !IsValidColumnType(c.Type) {
		return fmt.Errorf("column '%s' has invalid type '%s'", c.ColumnName, c.Type)
	}
	return nil
}

// Union combines the schema of a column as read from two sources.
// BIGINT widens to DOUBLE and nullability is combined; any other type difference is a TypeConflictError.
func (c *ColumnSchema) Union(other *ColumnSchema) (*ColumnSchema, error) {
	res := c.Clone()
	switch {
	case c.Type == other.Type:
	case IsNumericType(c.Type) && IsNumericType(other.Type):
		res.Type = TypeDouble
	default:
		return nil, &TypeConflictError{Column: c.ColumnName, Type: c.Type, OtherType: other.Type}
	}
	res.Nullable = c.Nullable || other.Nullable
	res.Required = c.Required || other.Required
	return res, nil
}

// TypeConflictError is returned by Union when two sources disagree on a column type
type TypeConflictError struct {
	Column    string
	Type      string
	OtherType string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("column '%s' has type %s in one source and %s in another", e.Column, e.Type, e.OtherType)
}
