package artifact

// Policy decides the public attributes of an item from its id.
type Policy struct {
	// GenesisLimit is the highest genesis item id.
	GenesisLimit uint64
	// SeasonalFrom and SeasonalTo bound, exclusively, the item ids that get
	// the seasonal overlay. SeasonalTo <= SeasonalFrom+1 disables it.
	SeasonalFrom, SeasonalTo uint64
}

// DefaultPolicy returns the attribute policy used on a network.
func DefaultPolicy(networkID uint64) Policy {
	p := Policy{GenesisLimit: 139}
	switch networkID {
	case Sapphire:
		p.GenesisLimit = 137
		p.SeasonalFrom, p.SeasonalTo = 235, 242
	case SapphireTestnet:
		p.GenesisLimit = 137
	}
	return p
}

// Attributes returns the attributes of itemID.
func (p Policy) Attributes(itemID uint64) Attributes {
	return Attributes{
		Genesis:  itemID <= p.GenesisLimit,
		Seasonal: itemID > p.SeasonalFrom && itemID < p.SeasonalTo,
	}
}
