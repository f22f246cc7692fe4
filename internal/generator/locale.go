package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const localeFileName = "en.strings.json"

// localeIndex collects the per-model label dictionaries written to the
// locale strings file at the end of a run.
type localeIndex struct {
	mu     sync.Mutex
	models map[string]map[string]string
}

func newLocaleIndex() *localeIndex {
	return &localeIndex{models: map[string]map[string]string{}}
}

func (l *localeIndex) add(modelKey string, labels map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models[modelKey] = labels
}

// write emits the accumulated dictionaries as a single strings file in
// the output root.
func (l *localeIndex) write(outputDir string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payload := struct {
		Models map[string]map[string]string `json:"models"`
	}{Models: l.models}

	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encoding locale data: %w", err)
	}
	path := filepath.Join(outputDir, localeFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing locale file: %w", err)
	}
	return path, nil
}
