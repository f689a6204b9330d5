package messenger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/messenger"
	"github.com/omni/rollup-relayer/relayer"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	registry := messenger.DefaultRegistry()
	for _, test := range []struct {
		ChainID entity.ChainID
		Family  relayer.Family
	}{
		{42161, messenger.FamilyArbitrum},
		{421613, messenger.FamilyArbitrum},
		{412346, messenger.FamilyArbitrum},
		{288, messenger.FamilyBoba},
		{2888, messenger.FamilyBoba},
		{10, messenger.FamilyOptimism},
		{420, messenger.FamilyOptimism},
	} {
		test := test
		t.Run(test.ChainID.String(), func(t *testing.T) {
			t.Parallel()
			factory, family, err := registry.Resolve(test.ChainID)
			require.NoError(t, err)
			require.NotNil(t, factory)
			require.Equal(t, test.Family, family)
		})
	}

	_, _, err := registry.Resolve(9372855)
	var unsupported *relayer.UnsupportedChainError
	require.ErrorAs(t, err, &unsupported)
	require.EqualError(t, err, "no relayer program found for 9372855")

	require.Equal(t, []entity.ChainID{10, 288, 420, 2888, 42161, 412346, 421613}, registry.ChainIDs())
}
