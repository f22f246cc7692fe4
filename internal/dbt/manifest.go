package dbt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/lookgen/internal/lookml"
)

// LoadManifest reads and parses manifest.json from the dbt target dir.
func LoadManifest(targetDir string) (*Manifest, error) {
	path := filepath.Join(targetDir, "manifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// columnLooker mirrors the column-level meta.looker block: dimension
// override attributes inline plus a measures list.
type columnLooker struct {
	lookml.DimensionMeta `mapstructure:",squash"`
	Measures             []lookml.MeasureMeta `mapstructure:"measures"`
}

// modelLooker mirrors the model-level meta.looker block. Newer schemas
// nest the view attributes under "view"; older ones keep them inline.
type modelLooker struct {
	lookml.ModelMeta `mapstructure:",squash"`
	View             *lookml.ModelMeta `mapstructure:"view"`
}

// DecodeColumnMeta turns a manifest column's loose meta block into the
// typed annotation record the assembler consumes. A column with no
// looker block still yields a record carrying its description.
func DecodeColumnMeta(col *ManifestColumn) (*lookml.ColumnMeta, error) {
	out := &lookml.ColumnMeta{Description: col.Description}
	raw, ok := lookerBlock(col.Meta)
	if !ok {
		return out, nil
	}

	var decoded columnLooker
	if err := decodeLoose(raw, &decoded); err != nil {
		return nil, fmt.Errorf("column %s: decoding meta.looker: %w", col.Name, err)
	}
	if dimensionPresent(decoded.DimensionMeta) {
		dim := decoded.DimensionMeta
		out.Dimension = &dim
	}
	out.Measures = decoded.Measures
	return out, nil
}

func dimensionPresent(d lookml.DimensionMeta) bool {
	return d.Label != "" || d.GroupLabel != "" || d.Hidden != nil ||
		d.Description != "" || d.ValueFormatName != "" || len(d.Timeframes) > 0
}

// DecodeModelMeta extracts the model-level looker annotations, or nil
// when the model carries none.
func DecodeModelMeta(node *ManifestNode) (*lookml.ModelMeta, error) {
	raw, ok := lookerBlock(node.Meta)
	if !ok {
		return nil, nil
	}
	var decoded modelLooker
	if err := decodeLoose(raw, &decoded); err != nil {
		return nil, fmt.Errorf("model %s: decoding meta.looker: %w", node.Name, err)
	}
	if decoded.View != nil {
		return decoded.View, nil
	}
	if decoded.ModelMeta == (lookml.ModelMeta{}) {
		return nil, nil
	}
	m := decoded.ModelMeta
	return &m, nil
}

func lookerBlock(meta map[string]any) (map[string]any, bool) {
	if meta == nil {
		return nil, false
	}
	raw, ok := meta["looker"].(map[string]any)
	return raw, ok && raw != nil
}

// decodeLoose decodes schemaless JSON maps into typed structs, tolerating
// the numeric widening JSON decoding introduces.
func decodeLoose(input map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
