package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/F8ai/sourcing-agent/models"
)

const sampleCatalog = `{
	"preferred_sources": [
		{"name": "Hydrofarm", "url": "www.hydrofarm.com"},
		{"name": "Grodan", "url": "www.grodan.com"}
	],
	"sources_by_state": {
		"washington": {
			"legal_status": "recreational_medical",
			"materials": [{"name": "WA Materials", "url": "www.wa-materials.example.com"}],
			"dispensaries": [{"name": "WA Dispensary", "url": "www.wa-dispensary.example.com"}]
		},
		"california": {
			"legal_status": "recreational_medical",
			"materials": [{"name": "CA Materials", "url": "www.ca-materials.example.com"}],
			"equipment": [{"name": "CA Equipment", "url": "www.ca-equipment.example.com"}],
			"manufacturers": [{"name": "CA Manufacturer", "url": "www.ca-manufacturer.example.com"}]
		},
		"oklahoma": {
			"legal_status": "medical_only",
			"materials": [{"name": "OK Materials", "url": "www.ok-materials.example.com"}]
		}
	},
	"national_suppliers": {
		"materials": [{"name": "National Materials", "url": "www.national-materials.example.com"}],
		"equipment": [{"name": "National Equipment", "url": "www.national-equipment.example.com"}],
		"packaging": [{"name": "National Packaging", "url": "www.national-packaging.example.com"}],
		"testing": [{"name": "National Lab", "url": "www.national-lab.example.com"}]
	},
	"consulting_services": [
		{"name": "Compliance Partners", "url": "www.compliance-partners.example.com"}
	],
	"metadata": {"last_updated": "2025-11-18"}
}`

func writeCatalog(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.PreferredSources) != 2 {
		t.Fatalf("preferred sources = %d, want 2", len(c.PreferredSources))
	}
	if len(c.SourcesByState) != 3 {
		t.Fatalf("states = %d, want 3", len(c.SourcesByState))
	}
}

func TestLoadMissingFileReturnsEmptyCatalog(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if c == nil {
		t.Fatalf("catalog must be usable even on failure")
	}
	if got := len(Flatten(c)); got != 0 {
		t.Fatalf("empty catalog flattens to %d sources, want 0", got)
	}
}

func TestLoadMalformedFileReturnsEmptyCatalog(t *testing.T) {
	c, err := Load(writeCatalog(t, `{"preferred_sources": [`))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if got := len(Flatten(c)); got != 0 {
		t.Fatalf("malformed catalog flattens to %d sources, want 0", got)
	}
}

func TestFlattenOrder(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var names []string
	for _, source := range Flatten(c) {
		names = append(names, source.Name)
	}

	// Preferred first, then states in file order (materials before
	// equipment), then national materials and equipment. Dispensaries,
	// manufacturers, packaging, testing and consulting are catalogued but
	// not crawled.
	want := []string{
		"Hydrofarm",
		"Grodan",
		"WA Materials",
		"CA Materials",
		"CA Equipment",
		"OK Materials",
		"National Materials",
		"National Equipment",
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Flatten order = %v, want %v", names, want)
	}
}

func TestFlattenNilCatalog(t *testing.T) {
	if got := Flatten(nil); got != nil {
		t.Fatalf("Flatten(nil) = %v, want nil", got)
	}
}

func TestSummarize(t *testing.T) {
	c, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m := Summarize(c)

	if m.PreferredSources != 2 {
		t.Fatalf("preferred = %d, want 2", m.PreferredSources)
	}
	if m.StatesCovered != 3 {
		t.Fatalf("states covered = %d, want 3", m.StatesCovered)
	}
	if m.RecreationalMedical != 2 || m.MedicalOnly != 1 {
		t.Fatalf("legal status tallies = %d/%d, want 2/1", m.RecreationalMedical, m.MedicalOnly)
	}
	if m.Dispensaries != 1 || m.Manufacturers != 1 {
		t.Fatalf("dispensaries/manufacturers = %d/%d, want 1/1", m.Dispensaries, m.Manufacturers)
	}
	if m.TestingLabs != 1 {
		t.Fatalf("testing labs = %d, want 1", m.TestingLabs)
	}
	// national equipment + packaging + consulting
	if m.Suppliers != 3 {
		t.Fatalf("suppliers = %d, want 3", m.Suppliers)
	}
	// preferred(2) + dispensaries(1) + manufacturers(1) + national equipment,
	// packaging, testing(3) + consulting(1)
	if m.TotalSources != 8 {
		t.Fatalf("total sources = %d, want 8", m.TotalSources)
	}
	if m.LastUpdate != "2025-11-18" {
		t.Fatalf("last update = %q, want 2025-11-18", m.LastUpdate)
	}
	if len(m.PreferredSourcesList) != 2 {
		t.Fatalf("preferred list = %d entries, want 2", len(m.PreferredSourcesList))
	}
}

func TestSummarizeEmptyCatalog(t *testing.T) {
	m := Summarize(&models.Catalog{})
	if m.TotalSources != 0 {
		t.Fatalf("total sources = %d, want 0", m.TotalSources)
	}
	if m.LastUpdate != "Unknown" {
		t.Fatalf("last update = %q, want Unknown", m.LastUpdate)
	}
	if m.PreferredSourcesList == nil {
		t.Fatalf("preferred list should serialize as an empty array, not null")
	}
}

func TestSummarizeNilCatalog(t *testing.T) {
	m := Summarize(nil)
	if m.TotalSources != 0 || m.LastUpdate != "Unknown" {
		t.Fatalf("nil catalog summary = %+v", m)
	}
}
