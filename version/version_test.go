package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.Version)
	assert.Contains(t, info.String(), "Go Version: "+runtime.Version())

	s, err := info.JSON()
	require.NoError(t, err)
	var back Info
	require.NoError(t, json.Unmarshal([]byte(s), &back))
	assert.Equal(t, info, back)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "0123456", short("0123456789abcdef"))
	assert.Equal(t, "abc", short("abc"))
}
