package loader

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
	"golang.org/x/exp/maps"
)

// Reader reads one file of a given format
type Reader interface {
	Identifier() string
	// Extensions returns the lower cased data extensions handled, e.g. ".csv"
	Extensions() []string
	// Compressible returns whether the reader accepts a gzipped file, e.g. data.csv.gz
	Compressible() bool
	Read(ctx context.Context, path string, opts *ReadOptions) (*FileData, error)
}

// ReadOptions are the format options passed to every reader
type ReadOptions struct {
	// raw text tokens read as null by text formats
	MissingValues map[string]struct{}
	// field delimiter, 0 for the format default
	Delimiter rune
	// comment character for delimited text, 0 for none
	Comment rune
	// sqlite table
	Table string
	// xlsx sheet, empty for the first sheet
	Sheet string
}

func (o *ReadOptions) isMissing(raw string) bool {
	_, ok := o.MissingValues[raw]
	return ok
}

// FileData is the content of one file, before it is mapped to the dataset schema
type FileData struct {
	Path   string
	Fields []string
	// Schema is set by readers of typed formats, in which case row values are already typed.
	// Text formats leave it nil and hold string or nil values.
	Schema *schema.RowSchema
	Rows   []table.Row
}

func (d *FileData) IsText() bool {
	return d.Schema == nil
}

var (
	readers   = make(map[string]func() Reader)
	readersMu sync.RWMutex
)

// RegisterReaders registers reader constructors against each extension they handle
func RegisterReaders(ctors ...func() Reader) {
	readersMu.Lock()
	defer readersMu.Unlock()
	for _, ctor := range ctors {
		// create an instance of the reader to get the extensions
		r := ctor()
		for _, ext := range r.Extensions() {
			readers[strings.ToLower(ext)] = ctor
		}
	}
}

// ReaderForPath returns a reader for the data format of the path
func ReaderForPath(path string) (Reader, error) {
	readersMu.RLock()
	ctor, ok := readers[types.DataExtension(path)]
	readersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported file format '%s' - supported extensions: %v", types.DataExtension(path), SupportedExtensions())
	}
	r := ctor()
	if types.IsCompressed(path) && !r.Compressible() {
		return nil, fmt.Errorf("compressed %s files are not supported", r.Identifier())
	}
	return r, nil
}

// SupportedExtensions returns the registered extensions, sorted
func SupportedExtensions() []string {
	readersMu.RLock()
	defer readersMu.RUnlock()
	res := maps.Keys(readers)
	slices.Sort(res)
	return res
}

func init() {
	RegisterReaders(
		NewDelimitedReader,
		NewJsonlReader,
		NewParquetReader,
		NewSqliteReader,
		NewXlsxReader,
	)
}
