package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPrefersExplicitEnv(t *testing.T) {
	t.Setenv("DISTRO_INSTANCE_ID", "relay-7")
	require.Equal(t, "relay-7", ID("relay-0"))
}

func TestIDFallsBackWhenUnset(t *testing.T) {
	t.Setenv("DISTRO_INSTANCE_ID", "")
	require.NotEmpty(t, ID("relay-0"))
}
