package relayer

import (
	"fmt"
	"sort"

	"github.com/omni/rollup-relayer/entity"
)

type FamilyDef struct {
	Family   Family
	ChainIDs []entity.ChainID
	Factory  MessengerFactory
}

// Registry maps L2 chain ids onto chain family implementations. It is immutable after construction.
type Registry struct {
	families map[entity.ChainID]*FamilyDef
}

// NewRegistry panics if the chain id sets of the given families overlap.
func NewRegistry(defs ...FamilyDef) *Registry {
	r := &Registry{families: make(map[entity.ChainID]*FamilyDef)}
	for i := range defs {
		def := &defs[i]
		for _, id := range def.ChainIDs {
			if other, ok := r.families[id]; ok {
				panic(fmt.Sprintf("chain %s is claimed by both %s and %s", id, other.Family, def.Family))
			}
			r.families[id] = def
		}
	}
	return r
}

func (r *Registry) Resolve(chainID entity.ChainID) (MessengerFactory, Family, error) {
	def, ok := r.families[chainID]
	if !ok {
		return nil, "", &UnsupportedChainError{ChainID: chainID}
	}
	return def.Factory, def.Family, nil
}

// ChainIDs returns all supported chain ids in ascending order.
func (r *Registry) ChainIDs() []entity.ChainID {
	ids := make([]entity.ChainID, 0, len(r.families))
	for id := range r.families {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
