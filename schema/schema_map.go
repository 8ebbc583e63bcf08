package schema

import (
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// SchemaMap is a map of preset names to RowSchema
type SchemaMap map[string]*RowSchema

var (
	presets   = make(SchemaMap)
	presetsMu sync.RWMutex
)

// RegisterPreset registers a named schema preset built from a row struct.
// It is expected to be called from init functions and panics if the struct is invalid.
func RegisterPreset(name string, rowStruct any) {
	s, err := SchemaFromStruct(rowStruct)
	if err != nil {
		panic(fmt.Sprintf("invalid schema preset '%s': %s", name, err))
	}
	presetsMu.Lock()
	defer presetsMu.Unlock()
	presets[name] = s
}

// GetPreset returns a copy of the named schema preset
func GetPreset(name string) (*RowSchema, error) {
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	s, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema preset '%s' - registered presets: %v", name, presetNames())
	}
	return s.Clone(), nil
}

func presetNames() []string {
	res := maps.Keys(presets)
	slices.Sort(res)
	return res
}
