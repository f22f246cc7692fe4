// Package dbt reads the two dbt artifacts the generator consumes: the
// manifest (logical models and meta.looker annotations) and the catalog
// (physical column paths and warehouse types).
package dbt

// Manifest is the subset of manifest.json the generator needs.
type Manifest struct {
	Nodes     map[string]*ManifestNode `json:"nodes"`
	Exposures map[string]*Exposure     `json:"exposures"`
}

// ManifestNode is one logical model definition.
type ManifestNode struct {
	UniqueID     string                     `json:"unique_id"`
	Name         string                     `json:"name"`
	ResourceType string                     `json:"resource_type"`
	Schema       string                     `json:"schema"`
	Database     string                     `json:"database"`
	RelationName string                     `json:"relation_name"`
	Path         string                     `json:"path"`
	Description  string                     `json:"description"`
	Tags         []string                   `json:"tags"`
	Columns      map[string]*ManifestColumn `json:"columns"`
	Meta         map[string]any             `json:"meta"`
}

// ManifestColumn is one documented column with its loose meta block.
// The meta.looker payload is schemaless JSON; DecodeColumnMeta turns it
// into the typed annotation records the assembler consumes.
type ManifestColumn struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta"`
}

// Exposure is one dbt exposure; used only for model selection.
type Exposure struct {
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	DependsOn struct {
		Nodes []string `json:"nodes"`
	} `json:"depends_on"`
}

// Catalog is the subset of catalog.json the generator needs.
type Catalog struct {
	Nodes map[string]*CatalogNode `json:"nodes"`
}

// CatalogNode is the physical shape of one relation.
type CatalogNode struct {
	Metadata CatalogMetadata           `json:"metadata"`
	Columns  map[string]*CatalogColumn `json:"columns"`
}

// CatalogMetadata identifies the relation in the warehouse.
type CatalogMetadata struct {
	Type     string `json:"type"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	Database string `json:"database"`
}

// CatalogColumn is one physical column. Index preserves the declaration
// order JSON maps would otherwise lose.
type CatalogColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Comment string `json:"comment"`
}

// HasTag reports whether the node carries tag.
func (n *ManifestNode) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsModel reports whether the node is a model (manifests also carry
// seeds, tests and snapshots under nodes).
func (n *ManifestNode) IsModel() bool {
	return n.ResourceType == "model"
}
