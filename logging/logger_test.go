package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "", wantInfo: true},
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "error"},
		{level: "off"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Setenv(constants.EnvLogLevel, tt.level)
			t.Setenv(constants.EnvLogDir, "")
			var buf bytes.Buffer
			logger, closer := NewLogger("churn-dataset", &buf)
			defer closer.Close()

			logger.Debug("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			logger.Info("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNewLogger_JSONWithSource(t *testing.T) {
	t.Setenv(constants.EnvLogLevel, "info")
	t.Setenv(constants.EnvLogDir, "")
	var buf bytes.Buffer
	logger, closer := NewLogger("churn-dataset", &buf)
	defer closer.Close()
	logger.Info("loaded", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "churn-dataset", entry["source"])
}

func TestNewLogger_LogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	t.Setenv(constants.EnvLogLevel, "info")
	t.Setenv(constants.EnvLogDir, dir)

	var buf bytes.Buffer
	logger, closer := NewLogger("churn-dataset", &buf)
	logger.Info("written to file")
	require.NoError(t, closer.Close())

	// the file is closed, later entries only reach w
	logger.Info("after close")

	contents, err := os.ReadFile(filepath.Join(dir, LogFileName(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "written to file")
	assert.NotContains(t, string(contents), "after close")
	assert.Contains(t, buf.String(), "written to file")
	assert.Contains(t, buf.String(), "after close")
}
