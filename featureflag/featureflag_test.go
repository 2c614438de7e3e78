package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagDumpTreesOnLoad)})

	t.Run("run if enabled", func(t *testing.T) {
		var dumped bool
		f.IfSet(FlagDumpTreesOnLoad, func() {
			dumped = true
		})
		require.True(t, dumped)

		var validated bool
		f.IfSet(FlagDisablePackValidation, func() {
			validated = true
		})
		require.False(t, validated)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var dumped bool
		f.IfNotSet(FlagDumpTreesOnLoad, func() {
			dumped = true
		})
		require.False(t, dumped)

		var broadcast bool
		f.IfNotSet(FlagDisableWatchBroadcast, func() {
			broadcast = true
		})
		require.True(t, broadcast)
	})
}
