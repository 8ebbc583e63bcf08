package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// SchemaFromStruct builds a row schema from a struct describing one row of a dataset
func SchemaFromStruct(s any) (*RowSchema, error) {
	return NewSchemaBuilder().SchemaFromStruct(s)
}

type SchemaBuilder struct{}

func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

func (b *SchemaBuilder) SchemaFromStruct(s any) (*RowSchema, error) {
	// Get the type of the rowStruct
	t := reflect.TypeOf(s)
	if t == nil {
		return nil, fmt.Errorf("cannot build schema from nil")
	}
	return b.schemaFromType(t)
}

func (b *SchemaBuilder) schemaFromType(t reflect.Type) (*RowSchema, error) {
	// If rowStruct is a pointer, get the element type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot build schema from non-struct type %s", t)
	}

	// reflect over parquet tags to build schema
	var res = &RowSchema{}

	var errorList []error
	// Iterate over the struct fields
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		// Get the parquet tag
		var p = &ParquetTag{}
		var err error

		// if there is a JSON tag, use to populate the source name - otherwise use the property name
		sourceName := field.Name
		hasJsonName := false
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			split := strings.Split(jsonTag, ",")
			if split[0] != "" && split[0] != "-" {
				sourceName = split[0]
				hasJsonName = true
			}
		}

		// look for a parquet tag - this may override the name and/or type
		if tag := field.Tag.Get("parquet"); tag != "" {
			p, err = ParseParquetTag(tag)
			if err != nil {
				errorList = append(errorList, fmt.Errorf("field %s: %w", field.Name, err))
				continue
			}
			// is this field skipped?
			if p.Skip {
				continue
			}
		}

		// embedded structs are flattened into the parent
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			child, err := b.schemaFromType(field.Type)
			if err != nil {
				errorList = append(errorList, err)
				continue
			}
			res.Columns = append(res.Columns, child.Columns...)
			continue
		}

		// if the tag does not specify a name, use the json name as is, otherwise the snake cased field name
		if p.Name == "" {
			if hasJsonName {
				p.Name = sourceName
			} else {
				p.Name = strcase.ToSnake(field.Name)
			}
		}

		c := &ColumnSchema{
			ColumnName: p.Name,
			Type:       p.Type,
			Nullable:   p.Nullable || field.Type.Kind() == reflect.Ptr,
			Required:   p.Required,
		}
		if sourceName != p.Name {
			c.SourceName = sourceName
		}
		// if the tag does not specify a type, infer from the field type
		if c.Type == "" {
			c.Type, err = b.getColumnType(field.Type)
			if err != nil {
				errorList = append(errorList, fmt.Errorf("failed to get schema for field %s: %w", field.Name, err))
				continue
			}
		}
		res.Columns = append(res.Columns, c)
	}

	if len(errorList) > 0 {
		return nil, errors.Join(errorList...)
	}

	return res, nil
}

func (b *SchemaBuilder) getColumnType(t reflect.Type) (string, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return TypeBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return TypeBigint, nil
	case reflect.Float32, reflect.Float64:
		return TypeDouble, nil
	case reflect.String:
		return TypeVarchar, nil
	default:
		return "", fmt.Errorf("unsupported type %s", t)
	}
}
