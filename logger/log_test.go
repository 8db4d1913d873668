package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	Init("debug")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Init("shouting")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestAddFileLogger(t *testing.T) {
	defer Log.SetOutput(os.Stdout)

	workdir := t.TempDir()
	require.NoError(t, AddFileLogger(workdir))
	assert.Equal(t, filepath.Join(workdir, "log", "todo.log"), GetLogFilePath())

	Log.Info("written to file")

	raw, err := os.ReadFile(GetLogFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "written to file")
}
