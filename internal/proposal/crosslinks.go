package proposal

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed crosslinks.yaml
var embeddedCrossLinks []byte

// CrossLink is one entry of the logical dependency table spec.md §4.5
// describes: whenever capability nodes exist for both From and To, a
// depends_on edge is added between them.
type CrossLink struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type crossLinkDoc struct {
	Links []CrossLink `yaml:"links"`
}

// LoadCrossLinks returns the cross-link table. If overridePath is
// non-empty, it is read from disk instead of the embedded default,
// letting a deployment swap in a domain-specific table without
// recompiling (Open Question (b) of spec.md §9).
func LoadCrossLinks(overridePath string) ([]CrossLink, error) {
	raw := embeddedCrossLinks
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("proposal: read crosslinks override %q: %w", overridePath, err)
		}
		raw = data
	}

	var doc crossLinkDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("proposal: parse crosslinks: %w", err)
	}
	return doc.Links, nil
}
