package messenger

import (
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/messenger/arbitrum"
	"github.com/omni/rollup-relayer/messenger/ovm"
	"github.com/omni/rollup-relayer/relayer"
)

const (
	FamilyArbitrum relayer.Family = "arbitrum"
	FamilyBoba     relayer.Family = "boba"
	FamilyOptimism relayer.Family = "optimism"
)

// Boba runs the same legacy OVM bridge as pre-Bedrock Optimism, only with its own L1 contract set.
func DefaultRegistry() *relayer.Registry {
	return relayer.NewRegistry(
		relayer.FamilyDef{
			Family:   FamilyArbitrum,
			ChainIDs: []entity.ChainID{42161, 421613, 412346},
			Factory:  arbitrum.NewMessenger,
		},
		relayer.FamilyDef{
			Family:   FamilyBoba,
			ChainIDs: []entity.ChainID{288, 2888},
			Factory:  ovm.NewMessenger,
		},
		relayer.FamilyDef{
			Family:   FamilyOptimism,
			ChainIDs: []entity.ChainID{10, 420},
			Factory:  ovm.NewMessenger,
		},
	)
}
