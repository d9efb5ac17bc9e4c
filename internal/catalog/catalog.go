// Package catalog holds the set of programmable profiles keyed by model
// and the station settings that travel with them.
package catalog

import (
	"fmt"
	"sort"

	"github.com/bft-labs/icmprog/internal/domain"
)

// Catalog is an immutable set of validated profiles. A reload produces a new
// Catalog; an existing one is never modified.
type Catalog struct {
	// Path is the file the catalog was loaded from, empty for the built-in one
	Path string

	// OutputDirectory holds one audit record per programmed unit
	OutputDirectory string

	// CheckBarcode refuses units that already have an audit record
	CheckBarcode bool

	// Profiles maps model keys (e.g. "YB180") to their profiles
	Profiles map[string]domain.Profile
}

// New builds a catalog from profiles. Every profile must validate and model
// keys must be unique.
func New(outputDir string, checkBarcode bool, profiles []domain.Profile) (*Catalog, error) {
	c := &Catalog{
		OutputDirectory: outputDir,
		CheckBarcode:    checkBarcode,
		Profiles:        make(map[string]domain.Profile, len(profiles)),
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.Profiles[p.Model]; dup {
			return nil, fmt.Errorf("model %s listed more than once", p.Model)
		}
		c.Profiles[p.Model] = p
	}
	return c, nil
}

// Default returns the built-in catalog used when no file is configured.
func Default() *Catalog {
	c, err := New(".", false, []domain.Profile{
		{Model: "YB180", Probe: domain.ProbeTemperature, SetPoint: 128, HardStart: 50, MinimumOutput: 17},
		{Model: "YB240", Probe: domain.ProbeTemperature, SetPoint: 123, HardStart: 50, MinimumOutput: 17},
		{Model: "YB300", Probe: domain.ProbeTemperature, SetPoint: 115, HardStart: 50, MinimumOutput: 17},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the profile for a model key.
func (c *Catalog) Lookup(key string) (domain.Profile, bool) {
	if c == nil {
		return domain.Profile{}, false
	}
	p, ok := c.Profiles[key]
	return p, ok
}

// Models returns the model keys in sorted order.
func (c *Catalog) Models() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Profiles))
	for k := range c.Profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of profiles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Profiles)
}

// Source describes where the catalog came from, for logs and the operator screen.
func (c *Catalog) Source() string {
	if c == nil {
		return "none"
	}
	if c.Path == "" {
		return "built-in"
	}
	return c.Path
}
