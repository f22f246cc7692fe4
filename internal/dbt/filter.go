package dbt

import (
	"sort"
	"strings"
)

// FilterOptions selects which manifest models to generate for.
type FilterOptions struct {
	// Tag keeps only models carrying the tag.
	Tag string

	// Select keeps only models with these names (empty keeps all).
	Select []string

	// Include / Exclude are name allow/deny lists applied after Select.
	Include []string
	Exclude []string

	// ExposuresOnly keeps only models some exposure depends on;
	// ExposuresTag further restricts which exposures count.
	ExposuresOnly bool
	ExposuresTag  string
}

// SelectModels applies the filter options and returns the surviving
// models sorted by unique id, so runs are deterministic regardless of
// manifest map order.
func (m *Manifest) SelectModels(opts FilterOptions) []*ManifestNode {
	exposed := m.exposedModelIDs(opts)

	var out []*ManifestNode
	for id, node := range m.Nodes {
		if !node.IsModel() {
			continue
		}
		if opts.Tag != "" && !node.HasTag(opts.Tag) {
			continue
		}
		if len(opts.Select) > 0 && !containsName(opts.Select, node.Name) {
			continue
		}
		if len(opts.Include) > 0 && !containsName(opts.Include, node.Name) {
			continue
		}
		if containsName(opts.Exclude, node.Name) {
			continue
		}
		if opts.ExposuresOnly {
			if _, ok := exposed[id]; !ok {
				continue
			}
		}
		out = append(out, node)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out
}

// exposedModelIDs collects the node ids referenced by exposures, or nil
// when exposure filtering is off.
func (m *Manifest) exposedModelIDs(opts FilterOptions) map[string]struct{} {
	if !opts.ExposuresOnly {
		return nil
	}
	exposed := make(map[string]struct{})
	for _, exp := range m.Exposures {
		if opts.ExposuresTag != "" && !containsName(exp.Tags, opts.ExposuresTag) {
			continue
		}
		for _, id := range exp.DependsOn.Nodes {
			exposed[id] = struct{}{}
		}
	}
	return exposed
}

func containsName(haystack []string, name string) bool {
	for _, h := range haystack {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return true
		}
	}
	return false
}
