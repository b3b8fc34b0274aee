package search

import (
	"fmt"
	"io"
	"os"

	"github.com/geoknoesis/ldgraph/rdf"
	"gopkg.in/yaml.v3"
)

// IndexedResource configures indexing and projection for one resource type.
type IndexedResource struct {
	// Type is the rdf:type IRI the configuration applies to.
	Type string `yaml:"type" json:"type"`
	// Indexed lists the predicates whose objects feed the full-text index.
	Indexed []string `yaml:"indexed" json:"indexed"`
	// Projected lists the predicates returned in search results.
	Projected []string `yaml:"projected" json:"projected"`
	// Context is attached as "@context" to caller-facing results when set.
	Context any `yaml:"context,omitempty" json:"context,omitempty"`
}

// LoadConfigs reads a YAML list of IndexedResource entries.
//
//	- type: https://www.w3.org/ns/activitystreams#Note
//	  indexed: [https://www.w3.org/ns/activitystreams#content]
//	  projected: [https://www.w3.org/ns/activitystreams#name]
//	  context: https://www.w3.org/ns/activitystreams
func LoadConfigs(r io.Reader) ([]IndexedResource, error) {
	var configs []IndexedResource
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&configs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("search: %w: decode index config: %v", rdf.ErrConfiguration, err)
	}
	for i, cfg := range configs {
		if cfg.Type == "" {
			return nil, fmt.Errorf("search: %w: index config %d has no type", rdf.ErrConfiguration, i)
		}
	}
	return configs, nil
}

// LoadConfigFile reads index configurations from a YAML file.
func LoadConfigFile(path string) ([]IndexedResource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %v", rdf.ErrConfiguration, err)
	}
	defer f.Close()
	return LoadConfigs(f)
}
