package writer

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
	"github.com/turbot/pipe-fittings/utils"
	"golang.org/x/exp/maps"
)

// Format encodes a table in one file format
type Format interface {
	Identifier() string
	// Extensions returns the lower cased data extensions handled, e.g. ".csv"
	Extensions() []string
	// Text formats may be gzipped and carry their column types in a schema sidecar
	Text() bool
	Write(ctx context.Context, dest *Destination, t *table.Table, opts *WriteOptions) error
}

// Destination is the temp file a format writes to
type Destination struct {
	// Path of the temp file, for formats which write through their own file handle
	Path string
	// Target is the path the temp file is published to. Its extension selects format variants such as tsv.
	Target string
	// W writes to the temp file, decompressed if the destination is gzipped
	W io.Writer
}

// WriteOptions are passed to every format
type WriteOptions struct {
	NanPolicy string
	Sentinel  string
	// sqlite table
	Table string
	// Schema is the schema persisted with the table, which differs from the table schema if
	// NaN values are written as null
	Schema *schema.RowSchema
	// text tokens the loader reads as null by default
	missing map[string]struct{}
}

// readsAsMissing returns whether an unquoted text value would load as null
func (o *WriteOptions) readsAsMissing(s string) bool {
	_, ok := o.missing[s]
	return ok
}

// text renders a value for a text format
func (o *WriteOptions) text(v any) string {
	if f, ok := v.(float64); ok && isNonFinite(f) {
		return o.Sentinel
	}
	return table.FormatValue(v)
}

// value returns the value to store in a typed format
func (o *WriteOptions) value(v any) any {
	if f, ok := v.(float64); ok && isNonFinite(f) {
		return nil
	}
	return v
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

var (
	formats   = make(map[string]func() Format)
	formatsMu sync.RWMutex
)

// RegisterFormats registers format constructors against each extension they handle
func RegisterFormats(ctors ...func() Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	for _, ctor := range ctors {
		f := ctor()
		for _, ext := range f.Extensions() {
			formats[strings.ToLower(ext)] = ctor
		}
	}
}

// FormatForPath returns the format for the extension of the path
func FormatForPath(path string) (Format, error) {
	formatsMu.RLock()
	ctor, ok := formats[types.DataExtension(path)]
	formatsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported output format '%s' - supported extensions: %v", types.DataExtension(path), SupportedExtensions())
	}
	f := ctor()
	if types.IsCompressed(path) && !f.Text() {
		return nil, fmt.Errorf("compressed %s output is not supported", f.Identifier())
	}
	return f, nil
}

// SupportedExtensions returns the registered extensions, sorted
func SupportedExtensions() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	res := maps.Keys(formats)
	slices.Sort(res)
	return res
}

func newWriteOptions(cfg *config.OutputConfig) *WriteOptions {
	missing := utils.SliceToLookup(constants.DefaultMissingValues)
	missing[cfg.GetSentinel()] = struct{}{}
	return &WriteOptions{
		NanPolicy: cfg.GetNanPolicy(),
		Sentinel:  cfg.GetSentinel(),
		Table:     cfg.GetTable(),
		missing:   missing,
	}
}

func init() {
	RegisterFormats(
		NewDelimitedFormat,
		NewJsonlFormat,
		NewParquetFormat,
		NewSqliteFormat,
	)
}
