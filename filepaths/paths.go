package filepaths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/mitchellh/go-homedir"
)

// EnsureParentDir ensures the directory containing path exists, creating it if necessary
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	// ensure it exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return "", fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}

	return dir, nil
}

// TempPattern returns an os.CreateTemp pattern for a file which will be renamed over dest,
// e.g. ".churn.csv.<execution id>.*.tmp"
func TempPattern(dest, executionId string) string {
	name := "." + filepath.Base(dest)
	if executionId != "" {
		name += "." + executionId
	}
	return name + ".*.tmp"
}

// SchemaSidecarPath returns the path of the schema sidecar written next to a text dataset
func SchemaSidecarPath(path string) string {
	return path + constants.SchemaSidecarSuffix
}

// IsSchemaSidecar returns whether the path names a schema sidecar rather than a dataset
func IsSchemaSidecar(path string) bool {
	return strings.HasSuffix(path, constants.SchemaSidecarSuffix)
}

// Expand expands a leading ~ to the home directory and cleans the path
func Expand(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("could not expand path %s: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}
