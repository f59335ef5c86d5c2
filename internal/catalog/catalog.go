package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors returned by this package.
var (
	// ErrUnknownProfile is returned by Lookup when the key is not in the catalog.
	ErrUnknownProfile = errors.New("unknown rollup profile")

	// ErrInvalidProfile is returned by New when a profile fails validation.
	ErrInvalidProfile = errors.New("invalid rollup profile")
)

// Profile is the static quality description of one rollup.
type Profile struct {
	// Key is the unique lookup identifier, e.g. "aztec".
	Key string `json:"key" yaml:"key"`

	// Family is a human-readable classification label. Display only.
	Family string `json:"family" yaml:"family"`

	PrivacyLevel       float64 `json:"privacyLevel" yaml:"privacy_level"`
	ProofSoundness     float64 `json:"proofSoundness" yaml:"proof_soundness"`
	ThroughputCapacity float64 `json:"throughputCapacity" yaml:"throughput_capacity"`
	OverheadCost       float64 `json:"overheadCost" yaml:"overhead_cost"`
}

// validate checks the key and that every attribute lies in [0, 1].
func (p Profile) validate() error {
	if p.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidProfile)
	}
	attrs := []struct {
		name string
		v    float64
	}{
		{"privacy_level", p.PrivacyLevel},
		{"proof_soundness", p.ProofSoundness},
		{"throughput_capacity", p.ThroughputCapacity},
		{"overhead_cost", p.OverheadCost},
	}
	for _, a := range attrs {
		// NaN fails both comparisons, so it is rejected too.
		if !(a.v >= 0 && a.v <= 1) {
			return fmt.Errorf("%w: %q %s = %v, must be within [0, 1]", ErrInvalidProfile, p.Key, a.name, a.v)
		}
	}
	return nil
}

// Catalog is an immutable mapping from profile key to Profile.
// The zero value is an empty catalog.
type Catalog struct {
	profiles map[string]Profile
	keys     []string
}

// New builds a Catalog from the given profiles.
func New(profiles ...Profile) (*Catalog, error) {
	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.profiles[p.Key]; dup {
			return nil, fmt.Errorf("catalog: %w: duplicate key %q", ErrInvalidProfile, p.Key)
		}
		c.profiles[p.Key] = p
		c.keys = append(c.keys, p.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

// Lookup returns the profile stored under key.
func (c *Catalog) Lookup(key string) (Profile, error) {
	p, ok := c.profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("catalog: %w: %q (valid: %v)", ErrUnknownProfile, key, c.keys)
	}
	return p, nil
}

// Has reports whether key is present in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.profiles[key]
	return ok
}

// Keys returns the sorted set of valid keys. The slice is a copy.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Profiles returns every profile ordered by key. The slice is a copy.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.profiles[k])
	}
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	return len(c.keys)
}
