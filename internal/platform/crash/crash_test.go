package crash

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_AppendsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.log")

	Report(path, "dispatch", errors.New("boom"))
	Report(path, "webhook", "second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dispatch\nboom")
	assert.Contains(t, string(data), "webhook\nsecond")
}

func TestReport_EmptyPathOnlyLogs(t *testing.T) {
	assert.NotPanics(t, func() { Report("", "x", "y") })
}
