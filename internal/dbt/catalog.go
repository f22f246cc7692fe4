package dbt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/lookgen/internal/lookml"
)

// LoadCatalog reads and parses catalog.json from the dbt target dir.
func LoadCatalog(targetDir string) (*Catalog, error) {
	path := filepath.Join(targetDir, "catalog.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return &c, nil
}

// ColumnsInOrder returns the node's columns in declaration order, converted to
// the core representation. JSON maps lose ordering, so the catalog's
// index field is the ordering authority.
func (n *CatalogNode) ColumnsInOrder() []lookml.CatalogColumn {
	out := make([]lookml.CatalogColumn, 0, len(n.Columns))
	for name, col := range n.Columns {
		path := col.Name
		if path == "" {
			path = name
		}
		out = append(out, lookml.CatalogColumn{
			Path:    path,
			Type:    col.Type,
			Index:   col.Index,
			Comment: col.Comment,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Path < out[j].Path
	})
	return out
}
