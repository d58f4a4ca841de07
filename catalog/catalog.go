// Package catalog loads the source catalog file and flattens it into the
// crawl list.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/F8ai/sourcing-agent/models"
)

// Load parses the JSON catalog at path. On read or parse failure it returns
// an empty catalog together with the error; callers log and treat the empty
// catalog as zero sources rather than failing the process.
func Load(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &models.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var c models.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return &models.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Flatten concatenates every crawlable source in a fixed order: preferred
// sources, then per-state materials and equipment with states in catalog
// order, then national materials and equipment. The order makes dry-run
// listings reproducible.
func Flatten(c *models.Catalog) []models.Source {
	if c == nil {
		return nil
	}

	sources := make([]models.Source, 0, len(c.PreferredSources))
	sources = append(sources, c.PreferredSources...)

	for _, state := range c.StateOrder() {
		stateSources := c.SourcesByState[state]
		sources = append(sources, stateSources.Materials...)
		sources = append(sources, stateSources.Equipment...)
	}

	sources = append(sources, c.NationalSuppliers.Materials...)
	sources = append(sources, c.NationalSuppliers.Equipment...)
	return sources
}

// Metrics summarizes catalog coverage for the dashboard endpoint.
type Metrics struct {
	TotalSources         int             `json:"total_sources"`
	PreferredSources     int             `json:"preferred_sources"`
	StatesCovered        int             `json:"states_covered"`
	Dispensaries         int             `json:"dispensaries"`
	Suppliers            int             `json:"suppliers"`
	Manufacturers        int             `json:"manufacturers"`
	TestingLabs          int             `json:"testing_labs"`
	RecreationalMedical  int             `json:"recreational_medical"`
	MedicalOnly          int             `json:"medical_only"`
	LastUpdate           string          `json:"last_update"`
	LastScrape           string          `json:"last_scrape,omitempty"`
	PreferredSourcesList []models.Source `json:"preferred_sources_list"`
}

// Summarize counts catalog entries by kind, mirroring the totals the
// dashboard has always shown.
func Summarize(c *models.Catalog) Metrics {
	m := Metrics{
		LastUpdate:           "Unknown",
		PreferredSourcesList: []models.Source{},
	}
	if c == nil {
		return m
	}

	m.PreferredSources = len(c.PreferredSources)
	m.PreferredSourcesList = append(m.PreferredSourcesList, c.PreferredSources...)
	total := m.PreferredSources

	for _, state := range c.SourcesByState {
		m.StatesCovered++
		switch state.LegalStatus {
		case "recreational_medical":
			m.RecreationalMedical++
		case "medical_only":
			m.MedicalOnly++
		}
		m.Dispensaries += len(state.Dispensaries)
		m.Manufacturers += len(state.Manufacturers)
		total += len(state.Dispensaries) + len(state.Manufacturers)
	}

	m.Suppliers += len(c.NationalSuppliers.Equipment)
	m.Suppliers += len(c.NationalSuppliers.Packaging)
	m.TestingLabs += len(c.NationalSuppliers.Testing)
	total += len(c.NationalSuppliers.Equipment)
	total += len(c.NationalSuppliers.Packaging)
	total += len(c.NationalSuppliers.Testing)

	m.Suppliers += len(c.ConsultingServices)
	total += len(c.ConsultingServices)

	m.TotalSources = total
	if c.Metadata.LastUpdated != "" {
		m.LastUpdate = c.Metadata.LastUpdated
	}
	return m
}
