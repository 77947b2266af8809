package common

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	previous := CrashLogDir
	defer func() { CrashLogDir = previous }()

	InstallCrashHandler(t.TempDir())
	path := WriteCrashFile("index out of range", GetStackTrace())
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	report := string(data)
	assert.True(t, strings.HasPrefix(report, "=== MARKETMOOD CRASH REPORT ==="))
	assert.Contains(t, report, "index out of range")
	assert.Contains(t, report, "TestWriteCrashFile")
}
