package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildInfoInitialized(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
}

func TestString(t *testing.T) {
	require.Contains(t, String(), "docsync "+Version)
	require.Contains(t, String(), "commit "+GitCommit)
}
