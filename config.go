package hdarts

// Config describes the search space and the shape of the Model built over it. It is a plain value,
// constructed once and handed to NewModel; nothing reads it from anywhere else.
type Config struct {
	// NumLevels is the depth of the hierarchy. Level 0 mixes primitives; every level above mixes
	// graphs of the level below.
	NumLevels int `yaml:"num_levels" json:"num_levels"`

	// NumNodesAtLevel gives the number of nodes in the graphs of each level, including the input
	// and output nodes.
	NumNodesAtLevel []int `yaml:"num_nodes_at_level" json:"num_nodes_at_level"`

	// NumOpsAtLevel gives the number of candidates on every edge of each level. NumOpsAtLevel[0]
	// must equal the number of primitives, and NumOpsAtLevel[L] for L ≥ 1 is the number of
	// distinct graphs available from level L-1.
	NumOpsAtLevel []int `yaml:"num_ops_at_level" json:"num_ops_at_level"`

	ChannelsStart  int `yaml:"channels_start" json:"channels_start"`
	NumCells       int `yaml:"num_cells" json:"num_cells"`
	StemMultiplier int `yaml:"stem_multiplier" json:"stem_multiplier"`
}

// Validate returns a ConfigurationError describing the first thing wrong with the Config, given the
// number of primitive operations available. It returns nil if the Config can be built.
func (c Config) Validate(lenOps int) error {
	switch {
	case c.NumLevels < 1:
		return configErrorf("num_levels must be at least 1, got %d", c.NumLevels)
	case len(c.NumNodesAtLevel) != c.NumLevels:
		return configErrorf("num_nodes_at_level has %d entries for %d levels", len(c.NumNodesAtLevel), c.NumLevels)
	case len(c.NumOpsAtLevel) != c.NumLevels:
		return configErrorf("num_ops_at_level has %d entries for %d levels", len(c.NumOpsAtLevel), c.NumLevels)
	case c.NumOpsAtLevel[0] != lenOps:
		return configErrorf("num_ops_at_level[0] is %d, but there are %d primitive operations", c.NumOpsAtLevel[0], lenOps)
	case c.ChannelsStart < 1:
		return configErrorf("channels_start must be at least 1, got %d", c.ChannelsStart)
	case c.NumCells < 1:
		return configErrorf("num_cells must be at least 1, got %d", c.NumCells)
	case c.StemMultiplier < 1:
		return configErrorf("stem_multiplier must be at least 1, got %d", c.StemMultiplier)
	}

	for l := 0; l < c.NumLevels; l++ {
		if c.NumNodesAtLevel[l] < 2 {
			return configErrorf("level %d needs at least 2 nodes, got %d", l, c.NumNodesAtLevel[l])
		} else if c.NumOpsAtLevel[l] < 1 {
			return configErrorf("level %d needs at least 1 operation, got %d", l, c.NumOpsAtLevel[l])
		}
	}

	return nil
}

// NumGroups returns the number of distinct graphs held at the given level: one for each candidate
// of the level above, or a single one at the top level.
func (c Config) NumGroups(level int) int {
	if level == c.NumLevels-1 {
		return 1
	}
	return c.NumOpsAtLevel[level+1]
}
