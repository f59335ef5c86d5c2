package catalog

// DefaultKey is the profile evaluated when no model is selected.
const DefaultKey = "aztec"

// builtinProfiles is the hand-curated table shipped with the binary.
var builtinProfiles = []Profile{
	{
		Key:                "aztec",
		Family:             "zk privacy rollup",
		PrivacyLevel:       0.92,
		ProofSoundness:     0.84,
		ThroughputCapacity: 0.63,
		OverheadCost:       0.41,
	},
	{
		Key:                "zama",
		Family:             "FHE compute rollup",
		PrivacyLevel:       0.88,
		ProofSoundness:     0.91,
		ThroughputCapacity: 0.47,
		OverheadCost:       0.72,
	},
	{
		Key:                "soundness",
		Family:             "formal verification L2",
		PrivacyLevel:       0.55,
		ProofSoundness:     0.99,
		ThroughputCapacity: 0.75,
		OverheadCost:       0.28,
	},
}

var defaultCatalog = mustNew(builtinProfiles...)

// Default returns the built-in catalog. It is shared process-wide and
// exposes no mutation methods.
func Default() *Catalog {
	return defaultCatalog
}

func mustNew(profiles ...Profile) *Catalog {
	c, err := New(profiles...)
	if err != nil {
		panic(err)
	}
	return c
}
