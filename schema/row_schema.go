package schema

import (
	"fmt"
	"slices"

	"github.com/turbot/pipe-fittings/utils"
)

type RowSchema struct {
	Columns []*ColumnSchema `json:"columns"`
	// should we include ALL source fields in addition to any defined columns, or ONLY include the columns defined
	AutoMapSourceFields bool `json:"automap_source_fields"`
	// should we exclude any source fields from the output (only applicable if automap_source_fields is true)
	ExcludeSourceFields []string `json:"exclude_source_fields,omitempty"`
}

func NewRowSchema(columns ...*ColumnSchema) *RowSchema {
	return &RowSchema{Columns: columns}
}

// Names returns the column names in schema order
func (r *RowSchema) Names() []string {
	res := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		res[i] = c.ColumnName
	}
	return res
}

// ColumnIndex returns the position of the named column, or -1
func (r *RowSchema) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.ColumnName == name {
			return i
		}
	}
	return -1
}

func (r *RowSchema) Column(name string) (*ColumnSchema, bool) {
	idx := r.ColumnIndex(name)
	if idx == -1 {
		return nil, false
	}
	return r.Columns[idx], true
}

// Clone returns a deep copy of the schema
func (r *RowSchema) Clone() *RowSchema {
	res := &RowSchema{
		Columns:             make([]*ColumnSchema, len(r.Columns)),
		AutoMapSourceFields: r.AutoMapSourceFields,
		ExcludeSourceFields: slices.Clone(r.ExcludeSourceFields),
	}
	for i, c := range r.Columns {
		res.Columns[i] = c.Clone()
	}
	return res
}

// WithColumn returns a copy of the schema with the column appended
func (r *RowSchema) WithColumn(c *ColumnSchema) *RowSchema {
	res := r.Clone()
	res.Columns = append(res.Columns, c.Clone())
	return res
}

// Without returns a copy of the schema with the named columns removed
func (r *RowSchema) Without(names ...string) *RowSchema {
	exclude := utils.SliceToLookup(names)
	res := r.Clone()
	res.Columns = slices.DeleteFunc(res.Columns, func(c *ColumnSchema) bool {
		_, excluded := exclude[c.ColumnName]
		return excluded
	})
	return res
}

// Retype returns a copy of the schema with the named column's type and nullability replaced
func (r *RowSchema) Retype(name, columnType string, nullable bool) *RowSchema {
	res := r.Clone()
	if c, ok := res.Column(name); ok {
		c.Type = columnType
		c.Nullable = nullable
	}
	return res
}

// Validate checks that every column is valid, typed and uniquely named
func (r *RowSchema) Validate() error {
	seen := make(map[string]struct{}, len(r.Columns))
	for _, c := range r.Columns {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Type == "" {
			return fmt.Errorf("column '%s' has no type", c.ColumnName)
		}
		if _, ok := seen[c.ColumnName]; ok {
			return fmt.Errorf("duplicate column name '%s'", c.ColumnName)
		}
		seen[c.ColumnName] = struct{}{}
	}
	return nil
}

// FieldMapping maps an output column to the index of the source field it is read from.
// SourceIndex is -1 if the source does not contain the field.
type FieldMapping struct {
	Column      *ColumnSchema
	SourceIndex int
}

// MapFields resolves the ordered source field names of a file against this schema.
// If AutoMapSourceFields is set, every source field which is not excluded is kept in source order
// (declared columns override its attributes), followed by any declared columns the source lacks.
// Otherwise only the declared columns are kept, in declared order.
// A declared Required column which the source lacks is returned as a *MissingColumnError.
func (r *RowSchema) MapFields(sourceFields []string) ([]FieldMapping, error) {
	sourceIndex := make(map[string]int, len(sourceFields))
	for i, f := range sourceFields {
		if _, ok := sourceIndex[f]; ok {
			return nil, fmt.Errorf("duplicate source field '%s'", f)
		}
		sourceIndex[f] = i
	}

	// check required columns first so the error names the column rather than a later symptom
	for _, c := range r.Columns {
		if _, ok := sourceIndex[c.SourceField()]; !ok && c.Required {
			return nil, &MissingColumnError{Column: c.ColumnName}
		}
	}

	var res []FieldMapping
	declaredBySource := make(map[string]*ColumnSchema, len(r.Columns))
	for _, c := range r.Columns {
		declaredBySource[c.SourceField()] = c
	}

	mapped := make(map[string]struct{})
	if r.AutoMapSourceFields {
		// build map of excluded fields
		excludeMap := utils.SliceToLookup(r.ExcludeSourceFields)
		for i, f := range sourceFields {
			// if this field is excluded, skip it
			if _, excluded := excludeMap[f]; excluded {
				continue
			}
			col := &ColumnSchema{ColumnName: f}
			if declared, ok := declaredBySource[f]; ok {
				col = declared.Clone()
			}
			res = append(res, FieldMapping{Column: col, SourceIndex: i})
			mapped[f] = struct{}{}
		}
	}

	// now add all explicitly defined columns not already mapped
	for _, c := range r.Columns {
		if _, ok := mapped[c.SourceField()]; ok {
			continue
		}
		idx, ok := sourceIndex[c.SourceField()]
		if !ok {
			idx = -1
		}
		col := c.Clone()
		if idx == -1 {
			// absent optional column is loaded as all null
			col.Nullable = true
		}
		res = append(res, FieldMapping{Column: col, SourceIndex: idx})
	}
	return res, nil
}

// MissingColumnError is returned by MapFields when a required column is absent from the source
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column '%s' not found", e.Column)
}
