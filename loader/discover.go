package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/filepaths"
	"github.com/churn-project/churn-dataset/types"
)

// discoverFiles resolves input locations to the files to read, in order.
// Files are taken as given; directories are walked in lexical order, keeping files with a supported extension.
func discoverFiles(paths []string) ([]string, error) {
	extensions := types.NewExtensionLookup(SupportedExtensions())

	var res []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, error_types.NewNotFoundError(error_types.StageLoad, root, err)
		}
		if !info.IsDir() {
			res = append(res, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepaths.IsSchemaSidecar(path) || isHidden(path) {
				return nil
			}
			if extensions.IsValid(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, error_types.NewNotFoundError(error_types.StageLoad, root, err)
		}
		if len(found) == 0 {
			return nil, error_types.NewNotFoundError(error_types.StageLoad, root, fmt.Errorf("no files with a supported extension %v", SupportedExtensions()))
		}
		res = append(res, found...)
	}
	if len(res) == 0 {
		return nil, error_types.NewNotFoundError(error_types.StageLoad, "", errors.New("no input paths"))
	}
	return res, nil
}

// hidden files include the temp files of an in progress write
func isHidden(path string) bool {
	name := filepath.Base(path)
	return len(name) > 1 && name[0] == '.'
}
