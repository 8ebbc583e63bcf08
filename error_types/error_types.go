package error_types

import (
	"fmt"
	"strings"
)

// Stage names used to tag errors with the pipeline stage that raised them
const (
	StageConfig    = "config"
	StageLoad      = "load"
	StageTransform = "transform"
	StageWrite     = "write"
)

// NotFoundError is returned when an input location does not exist
type NotFoundError struct {
	Stage string
	Path  string
	Err   error
}

func NewNotFoundError(stage, path string, err error) *NotFoundError {
	return &NotFoundError{Stage: stage, Path: path, Err: err}
}

func (e *NotFoundError) Error() string {
	return withCause(fmt.Sprintf("%s: location not found: %s", e.Stage, e.Path), e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError is returned when a value or record cannot be mapped into the expected schema.
// Row is the 0-based data row index (header rows are not counted), or -1 if not row specific.
type ParseError struct {
	Stage  string
	Path   string
	Row    int
	Column string
	Reason string
	Err    error
}

func NewParseError(stage, path string, row int, column, reason string) *ParseError {
	return &ParseError{Stage: stage, Path: path, Row: row, Column: column, Reason: reason}
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Stage)
	sb.WriteString(": parse error")
	if e.Path != "" {
		fmt.Fprintf(&sb, " in %s", e.Path)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&sb, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, " column '%s'", e.Column)
	}
	if e.Reason != "" {
		fmt.Fprintf(&sb, ": %s", e.Reason)
	}
	return withCause(sb.String(), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaMismatchError is returned when a source is missing a required column or sources disagree on schema
type SchemaMismatchError struct {
	Stage  string
	Path   string
	Column string
	Reason string
}

func NewSchemaMismatchError(stage, path, column, reason string) *SchemaMismatchError {
	return &SchemaMismatchError{Stage: stage, Path: path, Column: column, Reason: reason}
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("%s: schema mismatch", e.Stage)
	if e.Path != "" {
		msg += fmt.Sprintf(" in %s", e.Path)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column '%s'", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// UnknownColumnError is returned when a step references a column absent from the current schema
type UnknownColumnError struct {
	Stage  string
	Step   string
	Column string
}

func NewUnknownColumnError(step, column string) *UnknownColumnError {
	return &UnknownColumnError{Stage: StageTransform, Step: step, Column: column}
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s: step '%s' references unknown column '%s'", e.Stage, e.Step, e.Column)
}

// InvalidStepConfigError is returned when step options are incompatible with the data or with each other
type InvalidStepConfigError struct {
	Stage  string
	Step   string
	Column string
	Reason string
}

func NewInvalidStepConfigError(step, column, reason string) *InvalidStepConfigError {
	return &InvalidStepConfigError{Stage: StageTransform, Step: step, Column: column, Reason: reason}
}

func (e *InvalidStepConfigError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: invalid config for step '%s': %s", e.Stage, e.Step, e.Reason)
	}
	return fmt.Sprintf("%s: invalid config for step '%s' column '%s': %s", e.Stage, e.Step, e.Column, e.Reason)
}

// InsufficientDataError is returned when a statistic cannot be computed because a column has no values
type InsufficientDataError struct {
	Stage  string
	Step   string
	Column string
	Reason string
}

func NewInsufficientDataError(step, column, reason string) *InsufficientDataError {
	return &InsufficientDataError{Stage: StageTransform, Step: step, Column: column, Reason: reason}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data for step '%s' column '%s': %s", e.Stage, e.Step, e.Column, e.Reason)
}

// UnknownCategoryError is returned when replaying an encoding meets a category absent from the fit record
type UnknownCategoryError struct {
	Stage    string
	Step     string
	Column   string
	Row      int
	Category string
}

func NewUnknownCategoryError(step, column string, row int, category string) *UnknownCategoryError {
	return &UnknownCategoryError{Stage: StageTransform, Step: step, Column: column, Row: row, Category: category}
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: step '%s' column '%s' row %d: category '%s' not present in fit record", e.Stage, e.Step, e.Column, e.Row, e.Category)
}

// WritePermissionError is returned when the destination cannot be written
type WritePermissionError struct {
	Stage string
	Path  string
	Err   error
}

func NewWritePermissionError(path string, err error) *WritePermissionError {
	return &WritePermissionError{Stage: StageWrite, Path: path, Err: err}
}

func (e *WritePermissionError) Error() string {
	return withCause(fmt.Sprintf("%s: destination not writable: %s", e.Stage, e.Path), e.Err)
}

func (e *WritePermissionError) Unwrap() error { return e.Err }

// SerializationError is returned when a value cannot be represented in the target format
type SerializationError struct {
	Stage  string
	Path   string
	Row    int
	Column string
	Reason string
	Err    error
}

func NewSerializationError(path string, row int, column, reason string) *SerializationError {
	return &SerializationError{Stage: StageWrite, Path: path, Row: row, Column: column, Reason: reason}
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("%s: cannot serialize", e.Stage)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column '%s'", e.Column)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return withCause(msg, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func withCause(msg string, err error) string {
	if err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, err.Error())
}
