package export

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// ManifestVersion is bumped on incompatible manifest changes.
const ManifestVersion = 1

// Manifest records what an export produced, grouped by page.
type Manifest struct {
	Version     int            `json:"version"`
	Fingerprint string         `json:"fingerprint"`
	Pages       []ManifestPage `json:"pages"`
}

// ManifestPage lists the output paths one page renders.
type ManifestPage struct {
	Page    string          `json:"page"`
	Entries []ManifestEntry `json:"entries"`
}

// ManifestEntry is one exported output path.
type ManifestEntry struct {
	Path     string         `json:"path"`
	Params   pathmap.Params `json:"params"`
	File     string         `json:"file"`
	Rendered bool           `json:"rendered"`
}

// buildManifest groups table entries by page. Pages and entries are sorted.
func buildManifest(table pathmap.Table, files map[string]string, rendered map[string]bool) Manifest {
	byPage := map[string][]ManifestEntry{}
	for _, p := range table.Paths() {
		t := table[p]
		byPage[t.Page] = append(byPage[t.Page], ManifestEntry{
			Path:     p,
			Params:   t.Params.Clone(),
			File:     files[p],
			Rendered: rendered[p],
		})
	}
	m := Manifest{Version: ManifestVersion, Fingerprint: table.Fingerprint(), Pages: []ManifestPage{}}
	for _, page := range table.Pages() {
		m.Pages = append(m.Pages, ManifestPage{Page: page, Entries: byPage[page]})
	}
	return m
}

func writeManifest(file string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by an export.
func ReadManifest(file string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(file)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", file, err)
	}
	return m, nil
}
