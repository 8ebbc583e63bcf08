package types

import (
	"path/filepath"
	"strings"
)

// CompressionExtensions are outer extensions which wrap a data format, e.g. data.csv.gz
var CompressionExtensions = map[string]struct{}{
	".gz": {},
}

type ExtensionLookup map[string]struct{}

func NewExtensionLookup(extensions []string) ExtensionLookup {
	lookup := make(ExtensionLookup)
	for _, ext := range extensions {
		lookup[strings.ToLower(ext)] = struct{}{}
	}
	return lookup
}

func (l ExtensionLookup) IsValid(path string) bool {
	// empty lookup means all extensions are valid
	if len(l) == 0 {
		return true
	}

	_, valid := l[DataExtension(path)]
	return valid
}

// DataExtension returns the lower cased extension naming the data format of the path,
// looking through a compression extension, so "churn.CSV.gz" gives ".csv"
func DataExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if IsCompressed(path) {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	return ext
}

// IsCompressed returns whether the path has a compression extension
func IsCompressed(path string) bool {
	_, ok := CompressionExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
