package relayer_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/relayer"
)

func factoryFor(m relayer.Messenger) relayer.MessengerFactory {
	return func(*relayer.Env) (relayer.Messenger, error) {
		return m, nil
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	a := new(relayer.MessengerMock)
	b := new(relayer.MessengerMock)
	registry := relayer.NewRegistry(
		relayer.FamilyDef{Family: "family-a", ChainIDs: []entity.ChainID{10, 420}, Factory: factoryFor(a)},
		relayer.FamilyDef{Family: "family-b", ChainIDs: []entity.ChainID{288}, Factory: factoryFor(b)},
	)

	for _, test := range []struct {
		ChainID   entity.ChainID
		Family    relayer.Family
		Messenger relayer.Messenger
	}{
		{10, "family-a", a},
		{420, "family-a", a},
		{288, "family-b", b},
	} {
		factory, family, err := registry.Resolve(test.ChainID)
		require.NoError(t, err)
		require.Equal(t, test.Family, family)
		m, err := factory(nil)
		require.NoError(t, err)
		require.Same(t, test.Messenger, m)
	}

	require.Equal(t, []entity.ChainID{10, 288, 420}, registry.ChainIDs())
}

func TestRegistry_ResolveUnsupported(t *testing.T) {
	t.Parallel()

	registry := relayer.NewRegistry(
		relayer.FamilyDef{Family: "family-a", ChainIDs: []entity.ChainID{10}, Factory: factoryFor(nil)},
	)

	for _, id := range []entity.ChainID{9372855, 0, 1} {
		factory, family, err := registry.Resolve(id)
		require.Nil(t, factory)
		require.Empty(t, family)
		var unsupported *relayer.UnsupportedChainError
		require.ErrorAs(t, err, &unsupported)
		require.Equal(t, id, unsupported.ChainID)
		require.Contains(t, err.Error(), id.String())
	}
}

func TestNewRegistry_OverlappingChains(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		relayer.NewRegistry(
			relayer.FamilyDef{Family: "family-a", ChainIDs: []entity.ChainID{10, 420}},
			relayer.FamilyDef{Family: "family-b", ChainIDs: []entity.ChainID{420}},
		)
	})
}

func TestEnv_Contract(t *testing.T) {
	t.Parallel()

	configured := common.HexToAddress("0x01")
	fallback := common.HexToAddress("0x02")
	env := &relayer.Env{
		ChainID: 288,
		L2Chain: &config.ChainConfig{Contracts: map[string]common.Address{"Outbox": configured}},
	}
	defaults := map[string]common.Address{"Outbox": fallback, "Rollup": fallback}

	addr, err := env.Contract("Outbox", defaults)
	require.NoError(t, err)
	require.Equal(t, configured, addr)
	addr, err = env.Contract("Rollup", defaults)
	require.NoError(t, err)
	require.Equal(t, fallback, addr)
	_, err = env.Contract("Bridge", defaults)
	require.ErrorIs(t, err, relayer.ErrMissingContract)
}

func TestEnv_SearchRange(t *testing.T) {
	t.Parallel()

	env := &relayer.Env{L1Chain: &config.ChainConfig{StartBlock: 100, LookbackBlocks: 1000, MaxBlockRangeSize: 500}}
	from, to, size := env.SearchRange(5000)
	require.Equal(t, [3]uint64{4000, 5000, 500}, [3]uint64{from, to, size})

	from, _, _ = env.SearchRange(900)
	require.Equal(t, uint64(100), from)

	from, to, size = (&relayer.Env{}).SearchRange(50)
	require.Equal(t, [3]uint64{0, 50, 51}, [3]uint64{from, to, size})
}

func TestEnv_RelayRange(t *testing.T) {
	t.Parallel()

	env := &relayer.Env{L1Chain: &config.ChainConfig{StartBlock: 100, LookbackBlocks: 1000, MaxBlockRangeSize: 500}}
	from, to, size := env.RelayRange(5_000_000)
	require.Equal(t, [3]uint64{100, 5_000_000, 500}, [3]uint64{from, to, size})

	from, to, size = (&relayer.Env{}).RelayRange(50)
	require.Equal(t, [3]uint64{0, 50, 51}, [3]uint64{from, to, size})
}
