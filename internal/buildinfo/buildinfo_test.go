package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfo_DefaultsAndSet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("", "", "").Fprint(&buf))
	require.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", buf.String())

	buf.Reset()
	info := New("v1", "2025-09-06", "deadbeef")
	require.NoError(t, info.Fprint(&buf))
	require.Equal(t, "Build version: v1\nBuild date: 2025-09-06\nBuild commit: deadbeef\n", buf.String())
	require.Equal(t, "metricspush/v1", info.UserAgent("metricspush"))
}
