package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/churn-project/churn-dataset/types"
	"github.com/klauspost/compress/gzip"
)

// openFile opens a text file, decompressing it if it has a compression extension
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	if !types.IsCompressed(path) {
		return f, nil
	}

	gzReader, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating gzip reader for %s: %w", path, err)
	}
	return &gzipFile{Reader: gzReader, file: f}, nil
}

// gzipFile closes both the gzip stream and the underlying file
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if fileErr := g.file.Close(); err == nil {
		err = fileErr
	}
	return err
}
